package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"visitor_access_go/models"

	"github.com/google/uuid"
)

// MaxPhotoSize is the largest accepted capture, in bytes
const MaxPhotoSize = 5 << 20

const (
	MsgPhotoSaved   = "Foto capturada"
	MsgPhotoInvalid = "La foto debe ser una imagen JPEG o PNG de máximo 5MB"
	MsgPhotoFailed  = "Error al guardar la foto"
)

var (
	ErrPhotoEmpty    = errors.New("photo is empty")
	ErrPhotoTooLarge = errors.New("photo exceeds size limit")
	ErrPhotoType     = errors.New("photo must be JPEG or PNG")
	ErrPhotoEncoding = errors.New("malformed photo data URL")
)

// photoPrefix is where visitor photos live in the bucket
const photoPrefix = "visitors/photos"

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// Photo is a decoded capture with its sniffed content type
type Photo struct {
	Data        []byte
	ContentType string
}

// DecodeDataURL accepts the "data:image/jpeg;base64,..." string produced by a
// webcam capture.
func DecodeDataURL(dataURL string) (*Photo, error) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return nil, ErrPhotoEmpty
	}
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrPhotoEncoding
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxPhotoSize+2 {
		return nil, ErrPhotoTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoEncoding, err)
	}
	return newPhoto(data)
}

// ReadPhoto reads an uploaded file, rejecting anything over MaxPhotoSize
func ReadPhoto(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	return newPhoto(data)
}

func newPhoto(data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, ErrPhotoEmpty
	}
	if len(data) > MaxPhotoSize {
		return nil, ErrPhotoTooLarge
	}
	contentType := http.DetectContentType(data)
	if _, ok := photoExtensions[contentType]; !ok {
		return nil, ErrPhotoType
	}
	return &Photo{Data: data, ContentType: contentType}, nil
}

// PhotoKey builds visitors/photos/<uuid>_<unix>.<ext>
func PhotoKey(contentType string, now time.Time) string {
	ext, ok := photoExtensions[contentType]
	if !ok {
		ext = "bin"
	}
	return path.Join(photoPrefix, fmt.Sprintf("%s_%d.%s", uuid.New().String(), now.Unix(), ext))
}

// IsPhotoKey reports whether key was produced by PhotoKey
func IsPhotoKey(key string) bool {
	return strings.HasPrefix(key, photoPrefix+"/") && !strings.Contains(key, "..")
}

// PhotoService stores captures and records their key in the wizard bag
type PhotoService struct {
	storage PhotoStorage
	store   SessionStore
	now     func() time.Time
}

func NewPhotoService(storage PhotoStorage, store SessionStore) *PhotoService {
	return &PhotoService{storage: storage, store: store, now: time.Now}
}

// Save uploads the photo and writes its key into the wizard. A photo it
// replaces is removed from storage on a best-effort basis.
func (s *PhotoService) Save(ctx context.Context, sid string, photo *Photo) (*models.Session, error) {
	key := PhotoKey(photo.ContentType, s.now())
	if err := s.storage.Put(ctx, key, bytes.NewReader(photo.Data), photo.ContentType, int64(len(photo.Data))); err != nil {
		return nil, err
	}

	var previous string
	sess, err := s.store.Update(ctx, sid, func(sess *models.Session) error {
		previous = sess.Wizard.Values.Get(models.FieldVisitorPhoto)
		sess.Wizard.Values.Set(models.FieldVisitorPhoto, key)
		sess.Wizard.ClearFieldErrors(models.FieldVisitorPhoto)
		sess.Wizard.Notify(models.NotifySuccess, MsgPhotoSaved)
		return nil
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Printf("[WARNING] Removing orphaned photo %s failed: %v", key, delErr)
		}
		return nil, err
	}

	if previous != "" && previous != key && IsPhotoKey(previous) {
		if err := s.storage.Delete(ctx, previous); err != nil {
			log.Printf("[WARNING] Removing replaced photo %s failed: %v", previous, err)
		}
	}
	return sess, nil
}

// Open streams a stored photo
func (s *PhotoService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !IsPhotoKey(key) {
		return nil, "", ErrPhotoEncoding
	}
	return s.storage.Get(ctx, key)
}
