// Package media stores attachment bytes client-side-encrypted: the caller
// never uploads plaintext. Each attachment gets its own random AEAD key,
// which travels inside the message envelope (see envelope.AttachmentRef),
// not alongside the object in storage.
package media

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"securechat/internal/envelope"
	"securechat/internal/primitives"
)

const objectPrefix = "attachments/"

// Store uploads and retrieves sealed attachment blobs against an S3-compatible
// object store.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the object store at endpoint and ensures bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("media: new client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("media: bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("media: make bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: bucket}, nil
}

// sealAttachment generates a fresh key and seals plaintext under it,
// returning the key alongside the nonce-prepended sealed bytes.
func sealAttachment(plaintext []byte) (key [32]byte, sealed []byte, err error) {
	if _, err = io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, nil, fmt.Errorf("media: generating attachment key: %w", err)
	}

	nonce, err := primitives.NewNonce()
	if err != nil {
		return key, nil, err
	}
	ciphertext, err := primitives.Seal(key[:], nonce, plaintext, nil)
	if err != nil {
		return key, nil, fmt.Errorf("media: sealing attachment: %w", err)
	}

	sealed = append(append([]byte{}, nonce...), ciphertext...)
	return key, sealed, nil
}

// openAttachment reverses sealAttachment given the key it returned.
func openAttachment(key [32]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < primitives.NonceSize {
		return nil, fmt.Errorf("media: sealed object shorter than nonce")
	}
	nonce := sealed[:primitives.NonceSize]
	ciphertext := sealed[primitives.NonceSize:]
	plaintext, err := primitives.Open(key[:], nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("media: opening attachment: %w", err)
	}
	return plaintext, nil
}

// SealAndUpload generates a fresh per-attachment key, seals plaintext under
// it, and uploads the sealed bytes (nonce prepended) to object storage. The
// returned AttachmentRef carries the decryption key and must travel only
// inside an already-encrypted message envelope, never in the clear.
func (s *Store) SealAndUpload(ctx context.Context, plaintext []byte, mimeType, filename string) (*envelope.AttachmentRef, error) {
	key, sealed, err := sealAttachment(plaintext)
	if err != nil {
		return nil, err
	}

	objectKey := objectPrefix + uuid.NewString()

	_, err = s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(sealed), int64(len(sealed)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return nil, fmt.Errorf("media: upload: %w", err)
	}

	ref := &envelope.AttachmentRef{
		ObjectKey: objectKey,
		SizeBytes: int64(len(plaintext)),
		MIMEType:  mimeType,
		Filename:  filename,
	}
	copy(ref.DecryptionKey[:], key[:])
	return ref, nil
}

// DownloadAndOpen retrieves the sealed blob ref points at and decrypts it
// under ref.DecryptionKey.
func (s *Store) DownloadAndOpen(ctx context.Context, ref *envelope.AttachmentRef) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("media: download: %w", err)
	}
	defer obj.Close()

	sealed, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("media: reading object: %w", err)
	}
	return openAttachment(ref.DecryptionKey, sealed)
}

// Delete removes the object ref points at.
func (s *Store) Delete(ctx context.Context, ref *envelope.AttachmentRef) error {
	if err := s.client.RemoveObject(ctx, s.bucket, ref.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("media: delete: %w", err)
	}
	return nil
}
