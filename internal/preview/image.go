package preview

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"

	"github.com/i-doll/tfl/internal/fs"
)

var imageExt = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true}

// imageProducer decodes only the image header and describes the picture.
// Drawing pixels is left to the terminal renderer.
type imageProducer struct{}

func (imageProducer) CanHandle(src *source) bool {
	return src.mode == ModeRendered && imageExt[src.ext]
}

func (imageProducer) Produce(ctx context.Context, src *source) (*Payload, error) {
	f, err := os.Open(src.path)
	if err != nil {
		return nil, fs.WrapIO("preview", src.path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fs.NewError(fs.KindParse, "preview", src.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mime := "image/" + format
	if head, err := fs.ReadHead(src.path, 512); err == nil {
		mime = http.DetectContentType(head)
	}

	info := &ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}
	return &Payload{
		Kind:  KindImage,
		Title: fmt.Sprintf("%s · %d×%d", format, cfg.Width, cfg.Height),
		Lines: []Line{
			Styled(fmt.Sprintf("Format:     %s (%s)", format, mime), sizeStyle),
			Styled(fmt.Sprintf("Dimensions: %d × %d px", cfg.Width, cfg.Height), sizeStyle),
			Styled(fmt.Sprintf("Size:       %s", fs.HumanSize(src.size())), sizeStyle),
		},
		Image:      info,
		TotalBytes: src.size(),
	}, nil
}
