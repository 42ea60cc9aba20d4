package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/storage"
	"go.uber.org/zap"
)

// Kind classifies an upload by its declared MIME type
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

// Ingestion failure modes. Callers map these onto API error codes; anything
// wrapped in ErrIngestFailed means nothing was persisted.
var (
	ErrUnsupportedKind = errors.New("unsupported media kind")
	ErrCorruptMedia    = errors.New("media content does not match its declared type")
	ErrTooLarge        = errors.New("video exceeds the maximum allowed size")
	ErrIngestFailed    = errors.New("ingestion failed")
)

const (
	// Leading byte window used for magic-byte sniffing
	sniffWindow = 1024

	// Videos are stored byte-identical, so they get a hard ceiling here.
	// Images are re-encoded and bounded by the transport layer instead.
	maxVideoBytes = 50 << 20 // 50 MiB

	jpegQuality = 85
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	webmMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}
)

// videoExtensions is the whitelist for stored video filenames. Anything else
// falls back to mp4.
var videoExtensions = map[string]bool{
	"mp4":  true,
	"mov":  true,
	"webm": true,
}

// StorageRef points at a successfully ingested object
type StorageRef struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Kind Kind   `json:"kind"`
	Size int64  `json:"size"`
}

// DetectKind classifies an upload by its declared MIME prefix. The declared
// type decides which sniff rules run; content never promotes an upload to a
// kind its declaration didn't claim.
func DetectKind(declaredMIME string) Kind {
	switch {
	case strings.HasPrefix(declaredMIME, "image/"):
		return KindImage
	case strings.HasPrefix(declaredMIME, "video/"):
		return KindVideo
	default:
		return KindUnknown
	}
}

// Validator runs the upload ingestion pipeline: declared-type classification,
// magic-byte sniffing, size policy, image normalization and the final store
// write. It holds no shared state across uploads.
type Validator struct {
	store    storage.Storage
	maxVideo int64
}

// NewValidator creates a validator writing to the given object store
func NewValidator(store storage.Storage) *Validator {
	return &Validator{store: store, maxVideo: maxVideoBytes}
}

// ValidateAndStore ingests a meme upload and returns where it was stored.
// On any error the store contains nothing for this upload.
func (v *Validator) ValidateAndStore(ctx context.Context, r io.Reader, declaredMIME, filename string) (*StorageRef, error) {
	kind := DetectKind(declaredMIME)
	if kind == KindUnknown {
		return nil, ErrUnsupportedKind
	}

	br := bufio.NewReaderSize(r, sniffWindow)
	head, err := peekWindow(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}

	switch kind {
	case KindImage:
		if !sniffImage(head) {
			return nil, ErrCorruptMedia
		}
		return v.ingestImage(ctx, br, "")
	default:
		if !sniffVideo(head) {
			return nil, ErrCorruptMedia
		}
		return v.ingestVideo(ctx, br, filename)
	}
}

// Remove deletes a previously stored object. Used to clean up when the
// database write after a successful ingest fails.
func (v *Validator) Remove(ctx context.Context, key string) error {
	return v.store.Delete(ctx, key)
}

// StoreAvatar ingests a profile picture. Avatars are images only and run
// through the same normalization as meme images.
func (v *Validator) StoreAvatar(ctx context.Context, r io.Reader, declaredMIME string) (*StorageRef, error) {
	if DetectKind(declaredMIME) != KindImage {
		return nil, ErrUnsupportedKind
	}

	br := bufio.NewReaderSize(r, sniffWindow)
	head, err := peekWindow(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}
	if !sniffImage(head) {
		return nil, ErrCorruptMedia
	}

	return v.ingestImage(ctx, br, "avatars")
}

// ingestImage decodes, normalizes and re-encodes an image upload. EXIF
// orientation is baked into the pixel data and the JPEG encode flattens any
// alpha or palette mode, so every stored image is an upright RGB JPEG with
// no source metadata.
func (v *Validator) ingestImage(ctx context.Context, r io.Reader, subdir string) (*StorageRef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}

	key := uuid.New().String() + ".jpg"
	if subdir != "" {
		key = subdir + "/" + key
	}

	result, err := v.store.Save(ctx, key, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}

	logger.Log.Debug("image ingested",
		zap.String("key", result.Key),
		zap.Int64("size", result.Size),
	)

	return &StorageRef{Key: result.Key, URL: result.URL, Kind: KindImage, Size: result.Size}, nil
}

// ingestVideo stores a video byte-identical under a generated name. The size
// cap is enforced while streaming so an oversized upload aborts the store
// write instead of leaving a partial object.
func (v *Validator) ingestVideo(ctx context.Context, r io.Reader, filename string) (*StorageRef, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !videoExtensions[ext] {
		ext = "mp4"
	}

	key := "videos/" + uuid.New().String() + "." + ext
	capped := &capReader{r: r, remaining: v.maxVideo}

	result, err := v.store.Save(ctx, key, capped)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrIngestFailed, err)
	}

	logger.Log.Debug("video ingested",
		zap.String("key", result.Key),
		zap.Int64("size", result.Size),
	)

	return &StorageRef{Key: result.Key, URL: result.URL, Kind: KindVideo, Size: result.Size}, nil
}

// peekWindow returns the leading sniff window without consuming the stream.
// Uploads smaller than the window return whatever is available.
func peekWindow(br *bufio.Reader) ([]byte, error) {
	head, err := br.Peek(sniffWindow)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	return head, nil
}

// sniffImage accepts only JPEG (SOI marker) and PNG (signature)
func sniffImage(head []byte) bool {
	return bytes.HasPrefix(head, jpegMagic) || bytes.HasPrefix(head, pngMagic)
}

// sniffVideo accepts WEBM (EBML header) or MP4/MOV containers, which carry
// an ftyp box near the start (the 4-byte size prefix varies by container, so
// the signature is searched within the first 20 bytes rather than anchored).
func sniffVideo(head []byte) bool {
	if bytes.HasPrefix(head, webmMagic) {
		return true
	}
	limit := 20
	if len(head) < limit {
		limit = len(head)
	}
	return bytes.Contains(head[:limit], []byte("ftyp"))
}

// capReader delivers at most remaining bytes and fails with ErrTooLarge if
// the underlying stream has more, letting the store abort mid-write.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		var b [1]byte
		n, err := c.r.Read(b[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
