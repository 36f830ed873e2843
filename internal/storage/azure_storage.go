package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// ReportArchive keeps a copy of finished screening reports
type ReportArchive interface {
	Put(ctx context.Context, name string, data []byte) error
}

type azureStorage struct {
	client    *azblob.Client
	container string
}

func NewAzureStorage(accountName, accountKey, container string) (ReportArchive, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid archive credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}

	return &azureStorage{client: client, container: container}, nil
}

func (s *azureStorage) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr("application/json"),
		},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// ReportBlobName lays reports out by UTC day so a container listing stays
// browsable.
func ReportBlobName(sessionID string, at time.Time) string {
	at = at.UTC()
	return path.Join(
		"reports",
		at.Format("2006/01/02"),
		fmt.Sprintf("%s-%d.json", sessionID, at.UnixMilli()),
	)
}
