package utils

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func uploadedFile(t *testing.T, name string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	file, header, err := req.FormFile("image")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

func TestSaveImage(t *testing.T) {
	store := NewImageStore(t.TempDir())
	file, header := uploadedFile(t, "small.gif", smallGIF)

	rel, err := store.SaveImage(file, header)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(rel, "posts/") || !strings.HasSuffix(rel, ".gif") {
		t.Errorf("unexpected path %q", rel)
	}
	saved, err := os.ReadFile(filepath.Join(store.Root, filepath.FromSlash(rel)))
	if err != nil || !bytes.Equal(saved, smallGIF) {
		t.Fatalf("saved file mismatch: %v", err)
	}
	if ImageURL(rel) != "/media/"+rel {
		t.Errorf("ImageURL = %q", ImageURL(rel))
	}

	if err := store.DeleteImage(rel); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteImage(rel); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestSaveImageRejectsNonImages(t *testing.T) {
	store := NewImageStore(t.TempDir())
	file, header := uploadedFile(t, "notes.gif", []byte("just some text"))
	if _, err := store.SaveImage(file, header); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("err = %v, want ErrNotAnImage", err)
	}
}
