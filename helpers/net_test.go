package helpers

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log := logrus.New()
	log.Out = ioutil.Discard
	cache.SetLogger(log)

	os.Exit(m.Run())
}

func TestAttachmentFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DEFAULT_UA {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/cat.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("meow"))
	}))
	defer server.Close()

	fetcher := NewAttachmentFetcher(5*time.Second, 0)

	file, err := fetcher.Fetch(context.Background(), &discordgo.MessageAttachment{
		URL:         server.URL + "/cat.png",
		Filename:    "cat.png",
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("Fetch() failed: %s", err.Error())
	}
	if file.Name != "cat.png" || file.ContentType != "image/png" {
		t.Fatalf("Fetch() returned the wrong file: %+v", file)
	}
	data, _ := ioutil.ReadAll(file.Reader)
	if string(data) != "meow" {
		t.Fatalf("Fetch() returned %q, expected meow", string(data))
	}

	_, err = fetcher.Fetch(context.Background(), &discordgo.MessageAttachment{
		URL:      server.URL + "/dog.png",
		Filename: "dog.png",
	})
	if err == nil {
		t.Fatalf("Fetch() should fail for a non 200 response")
	}
}
