package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

// Image is a product picture on its way to the backend.
type Image struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// UploadImage stores a product image and returns the URL the backend serves it at.
func (c *Client) UploadImage(ctx context.Context, img Image) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(img.Filename)))
	h.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", errors.Wrap(err, "upload image")
	}
	if _, err := io.Copy(part, img.Data); err != nil {
		return "", errors.Wrap(err, "read image")
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, "upload image")
	}

	var out struct {
		ImageURL string `json:"image_url"`
	}
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/admin/upload-image",
		raw:         &buf,
		contentType: mw.FormDataContentType(),
		out:         &out,
		session:     true,
	})
	return out.ImageURL, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
