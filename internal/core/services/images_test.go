// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/services"
	test "github.com/jaycherian/gcp-go-image-tagger/internal/testutil"
	"github.com/zeebo/assert"
)

func newService() (*services.ImageService, *test.FakeObjectStore, *test.FakeRecordStore) {
	store := test.NewFakeObjectStore()
	records := test.NewFakeRecordStore()
	return &services.ImageService{
		Records: records,
		Store:   store,
		Bucket:  "media",
	}, store, records
}

func TestGetRecord(t *testing.T) {
	svc, _, records := newService()
	records.Records["uploads/cat.png"] = &model.ImageRecord{
		Filename: "uploads/cat.png",
		Tags:     map[string]string{"Cat": "99.1"},
	}

	record, err := svc.GetRecord(context.Background(), "uploads/cat.png")
	assert.NoError(t, err)
	assert.Equal(t, record.Tags["Cat"], "99.1")

	_, err = svc.GetRecord(context.Background(), "uploads/dog.png")
	assert.That(t, errors.Is(err, cloud.ErrRecordNotFound))

	_, err = svc.GetRecord(context.Background(), "")
	assert.That(t, errors.Is(err, services.ErrInvalidFilename))
}

func TestGetRecordWrapsStoreErrors(t *testing.T) {
	svc, _, records := newService()
	records.Err = errors.New("boom")
	_, err := svc.GetRecord(context.Background(), "uploads/cat.png")
	assert.Error(t, err)
	assert.That(t, !errors.Is(err, cloud.ErrRecordNotFound))
}

func TestThumbnailURL(t *testing.T) {
	svc, store, _ := newService()

	url, err := svc.ThumbnailURL(context.Background(), "uploads/cat.png")
	assert.NoError(t, err)
	assert.Equal(t, url, "https://signed.example/media/thumbnails/cat.png?expires=900")

	svc.SignedURLTTL = 2 * time.Minute
	url, err = svc.ThumbnailURL(context.Background(), "cat.png")
	assert.NoError(t, err)
	assert.Equal(t, url, "https://signed.example/media/thumbnails/cat.png?expires=120")

	_, err = svc.ThumbnailURL(context.Background(), "uploads/")
	assert.That(t, errors.Is(err, services.ErrInvalidFilename))

	store.Errors["SignedURL"] = errors.New("denied")
	_, err = svc.ThumbnailURL(context.Background(), "cat.png")
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	svc, store, _ := newService()
	var buf bytes.Buffer
	assert.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	env, err := svc.Upload(context.Background(), "../../etc/cat.png", buf.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, env.Key, "uploads/cat.png")
	assert.Equal(t, env.Bucket, "media")

	obj, ok := store.Object("media", "uploads/cat.png")
	assert.That(t, ok)
	assert.Equal(t, obj.ContentType, "image/png")

	_, err = svc.Upload(context.Background(), "notes.txt", []byte("hello world"))
	assert.That(t, errors.Is(err, services.ErrNotAnImage))

	_, err = svc.Upload(context.Background(), "", buf.Bytes())
	assert.That(t, errors.Is(err, services.ErrInvalidFilename))
}

func TestNewImageServiceFromConfig(t *testing.T) {
	config := *test.GetConfig()
	config.Storage.Bucket = "media"
	config.Storage.SignedURLMinutes = 5
	clients := &cloud.ServiceClients{
		ObjectStore: test.NewFakeObjectStore(),
		RecordStore: test.NewFakeRecordStore(),
	}

	svc := services.NewImageService(&config, clients)
	url, err := svc.ThumbnailURL(context.Background(), "uploads/a.png")
	test.HandleErr(err, t)
	assert.Equal(t, url, "https://signed.example/media/thumbnails/a.png?expires=300")
}
