package handlers

import (
	"bytes"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
	"github.com/Gautam-813/gauravphotoviewer/internal/models"
)

// GalleryHandler serves the gallery page and the read-only images API
type GalleryHandler struct {
	store  *gallery.Store
	logger *slog.Logger
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(store *gallery.Store, logger *slog.Logger) *GalleryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GalleryHandler{store: store, logger: logger}
}

var mobileMarkers = []string{"mobile", "android", "iphone", "ipad"}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: sans-serif; background: #111; color: #eee; }
h1 { text-align: center; font-weight: normal; padding: 1rem 0 0; }
#gallery { display: grid; gap: 8px; padding: 1rem;
  grid-template-columns: repeat(auto-fill, minmax({{if .IsMobile}}140px{{else}}240px{{end}}, 1fr)); }
#gallery a { display: block; }
#gallery img { width: 100%; height: 100%; object-fit: cover; border-radius: 4px; }
#empty { text-align: center; color: #888; padding: 3rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="gallery"></div>
<div id="empty" hidden>No images yet</div>
<script>
fetch("/api/images").then(r => r.json()).then(data => {
  const gallery = document.getElementById("gallery");
  if (!data.images.length) {
    document.getElementById("empty").hidden = false;
    return;
  }
  for (const img of data.images) {
    const a = document.createElement("a");
    a.href = img.full_url;
    a.target = "_blank";
    const el = document.createElement("img");
    el.src = img.thumb_url;
    el.alt = img.caption || img.file_id;
    el.loading = "lazy";
    a.appendChild(el);
    gallery.appendChild(a);
  }
});
</script>
</body>
</html>
`))

// HandlePage serves the gallery page.
// GET /
func (h *GalleryHandler) HandlePage(c *fiber.Ctx) error {
	userAgent := strings.ToLower(c.Get(fiber.HeaderUserAgent))
	isMobile := false
	for _, marker := range mobileMarkers {
		if strings.Contains(userAgent, marker) {
			isMobile = true
			break
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, fiber.Map{
		"Title":    "Telegram Image Gallery",
		"IsMobile": isMobile,
	}); err != nil {
		h.logger.Error("failed to render gallery page", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("template error")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// HandleImages returns the full ordered image collection.
// GET /api/images
func (h *GalleryHandler) HandleImages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"images": h.store.List()})
}

// HandleTestData appends two sample records for development.
// GET /api/test-data
// The samples go through the same dedup as real images, so repeated calls
// add nothing.
func (h *GalleryHandler) HandleTestData(c *fiber.Ctx) error {
	now := time.Now().UTC().Format(time.RFC3339)
	samples := []models.ImageRecord{
		{
			ID: "test1", FileID: "test1", FileUniqueID: "unique1",
			Width: 800, Height: 600,
			Timestamp: now, Caption: "Beautiful landscape", MessageID: 1,
			ThumbURL: "https://picsum.photos/300/300?random=1",
			FullURL:  "https://picsum.photos/800/600?random=1",
			Provenance: models.ProvenanceTest,
		},
		{
			ID: "test2", FileID: "test2", FileUniqueID: "unique2",
			Width: 800, Height: 600,
			Timestamp: now, Caption: "City skyline at night", MessageID: 2,
			ThumbURL: "https://picsum.photos/300/300?random=2",
			FullURL:  "https://picsum.photos/800/600?random=2",
			Provenance: models.ProvenanceTest,
		},
	}

	added, err := h.store.InsertBatch(samples)
	if err != nil {
		h.logger.Error("failed to persist test data", "error", err)
	}
	return c.JSON(fiber.Map{"status": "Test data added", "count": added})
}
