package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureStore uploads objects as block blobs into one container.
type AzureStore struct {
	client        *azblob.Client
	container     string
	publicBaseURL string
}

// NewAzureStore authenticates with a shared key. publicBaseURL overrides the
// blob endpoint in returned URLs (for a CDN), otherwise the account URL is used.
func NewAzureStore(accountName, accountKey, container, publicBaseURL string) (*AzureStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	base := publicBaseURL
	if base == "" {
		base = strings.TrimRight(client.URL(), "/") + "/" + container
	}

	return &AzureStore{
		client:        client,
		container:     container,
		publicBaseURL: strings.TrimRight(base, "/"),
	}, nil
}

// Upload stores data and fails when a blob with the same name already exists.
func (s *AzureStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType:  to.Ptr(contentType),
			BlobCacheControl: to.Ptr(CacheControl),
		},
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{
				IfNoneMatch: to.Ptr(azcore.ETagAny),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", name, err)
	}
	return objectURL(s.publicBaseURL, name), nil
}

func objectURL(base, name string) string {
	return base + "/" + url.PathEscape(name)
}
