// Package imagestore provides thread-safe in-memory storage for
// generated images. Stored bytes back the lightbox download link;
// nothing is written to disk and the store dies with the process.
package imagestore

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxImages is the maximum number of images kept in the store.
	// Older images are evicted to make room for new ones.
	MaxImages = 200

	// MaxImageSize is the maximum size of a single image (10MB).
	MaxImageSize = 10 * 1024 * 1024
)

var (
	// ErrNotFound indicates the requested image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidID indicates the provided image ID is not a valid UUID.
	ErrInvalidID = errors.New("invalid image ID")
	// ErrImageTooLarge indicates the image exceeds MaxImageSize.
	ErrImageTooLarge = errors.New("image exceeds maximum size")
	// ErrEmptyImage indicates the image has no data.
	ErrEmptyImage = errors.New("empty image data")
)

// Image is a stored image returned by Get.
type Image struct {
	// Data is the raw image bytes.
	Data []byte

	// MIMEType is the image encoding.
	MIMEType string

	// Alt is the prompt that produced the image. The download handler
	// derives the suggested filename from it.
	Alt string
}

// storedImage holds image data with bookkeeping metadata.
type storedImage struct {
	data      []byte
	mimeType  string
	alt       string
	createdAt time.Time
	seq       uint64
}

// Store provides thread-safe in-memory image storage keyed by UUID.
type Store struct {
	mu      sync.RWMutex
	images  map[string]*storedImage
	nextSeq uint64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		images: make(map[string]*storedImage),
	}
}

// Put saves image bytes and returns a unique ID.
// When the store is full the oldest image is evicted first.
func (s *Store) Put(data []byte, mimeType, alt string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	id := uuid.New().String()
	img := &storedImage{
		data:      data,
		mimeType:  mimeType,
		alt:       alt,
		createdAt: time.Now(),
	}

	s.mu.Lock()
	img.seq = s.nextSeq
	s.nextSeq++
	for len(s.images) >= MaxImages {
		s.evictOldestLocked()
	}
	s.images[id] = img
	s.mu.Unlock()

	return id, nil
}

// Get retrieves an image by ID. Returns ErrInvalidID for malformed IDs
// and ErrNotFound when the image does not exist or was evicted.
func (s *Store) Get(id string) (Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Image{}, ErrInvalidID
	}

	s.mu.RLock()
	img, exists := s.images[id]
	s.mu.RUnlock()

	if !exists {
		return Image{}, ErrNotFound
	}

	// Copy so callers cannot mutate stored bytes.
	data := make([]byte, len(img.data))
	copy(data, img.data)

	return Image{Data: data, MIMEType: img.mimeType, Alt: img.alt}, nil
}

// Count returns the number of stored images.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// evictOldestLocked removes the image inserted earliest.
// Must be called while holding the write lock.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldestSeq uint64
	for id, img := range s.images {
		if oldestID == "" || img.seq < oldestSeq {
			oldestID = id
			oldestSeq = img.seq
		}
	}
	if oldestID != "" {
		delete(s.images, oldestID)
	}
}
