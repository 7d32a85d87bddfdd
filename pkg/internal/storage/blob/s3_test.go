package blob_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	s3c "github.com/yeisme/soundvault/pkg/internal/storage/s3"
)

const firstPage = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Name>audio</Name><Prefix></Prefix><KeyCount>1</KeyCount><MaxKeys>1000</MaxKeys>
<IsTruncated>true</IsTruncated><NextContinuationToken>page-2</NextContinuationToken>
<Contents><Key>aaaa</Key><Size>1</Size></Contents>
</ListBucketResult>`

// TestS3WalkStopsListingWhenCallbackFails 回调出错后，后续分页请求必须随之取消.
func TestS3WalkStopsListingWhenCallbackFails(t *testing.T) {
	secondPage := make(chan struct{})
	cancelled := make(chan struct{})

	var requested, aborted sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("continuation-token") == "" {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(firstPage))

			return
		}

		requested.Do(func() { close(secondPage) })

		select {
		case <-r.Context().Done():
			aborted.Do(func() { close(cancelled) })
		case <-time.After(10 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	mc, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	s := blob.NewS3(&s3c.Client{Client: mc, Bucket: "audio"})
	stop := errors.New("stop")

	err = s.Walk(context.Background(), func(key string) error {
		select {
		case <-secondPage:
		case <-time.After(5 * time.Second):
			t.Error("second page never requested")
		}

		return stop
	})
	require.ErrorIs(t, err, stop)

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("listing request still running after Walk returned")
	}
}
