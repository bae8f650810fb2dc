package certimage

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

const (
	width  = 1600
	height = 1131
)

var (
	colorBackground = color.NRGBA{R: 0xFB, G: 0xF8, B: 0xF1, A: 0xFF}
	colorBorder     = color.NRGBA{R: 0x1F, G: 0x3A, B: 0x5F, A: 0xFF}
	colorAccent     = color.NRGBA{R: 0xC9, G: 0xA2, B: 0x27, A: 0xFF}
	colorText       = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}
	colorMuted      = color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xFF}
)

type Renderer interface {
	Render(cert *types.Certificate) ([]byte, error)
}

type Config struct {
	// FontPath overrides the bundled Go Regular face for body text.
	FontPath string
	// BaseFontSize scales every text element. Defaults to 32.
	BaseFontSize float64
}

type renderer struct {
	log     *logger.Logger
	regular *truetype.Font
	bold    *truetype.Font
	size    float64
}

func New(log *logger.Logger, cfg Config) (Renderer, error) {
	regular, err := parseFont(goregular.TTF)
	if err != nil {
		return nil, err
	}
	if path := strings.TrimSpace(cfg.FontPath); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		if regular, err = parseFont(raw); err != nil {
			return nil, err
		}
	}
	bold, err := parseFont(gobold.TTF)
	if err != nil {
		return nil, err
	}
	size := cfg.BaseFontSize
	if size <= 0 {
		size = 32
	}
	return &renderer{
		log:     log.With("component", "CertificateRenderer"),
		regular: regular,
		bold:    bold,
		size:    size,
	}, nil
}

func parseFont(raw []byte) (*truetype.Font, error) {
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return f, nil
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (r *renderer) Render(cert *types.Certificate) ([]byte, error) {
	if cert == nil {
		return nil, fmt.Errorf("certificate required")
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(colorBackground)
	dc.Clear()

	dc.SetColor(colorBorder)
	dc.SetLineWidth(18)
	dc.DrawRectangle(40, 40, width-80, height-80)
	dc.Stroke()
	dc.SetColor(colorAccent)
	dc.SetLineWidth(4)
	dc.DrawRectangle(72, 72, width-144, height-144)
	dc.Stroke()

	cx := float64(width) / 2

	dc.SetFontFace(face(r.bold, r.size*2.2))
	dc.SetColor(colorBorder)
	dc.DrawStringAnchored("CERTIFICATE OF COMPLETION", cx, 260, 0.5, 0.5)

	dc.SetFontFace(face(r.regular, r.size))
	dc.SetColor(colorMuted)
	dc.DrawStringAnchored("This certifies that", cx, 380, 0.5, 0.5)

	dc.SetFontFace(face(r.bold, r.size*2.6))
	dc.SetColor(colorText)
	dc.DrawStringAnchored(cert.RecipientName, cx, 490, 0.5, 0.5)

	dc.SetColor(colorAccent)
	dc.SetLineWidth(3)
	dc.DrawLine(cx-420, 560, cx+420, 560)
	dc.Stroke()

	dc.SetFontFace(face(r.regular, r.size))
	dc.SetColor(colorMuted)
	dc.DrawStringAnchored("has successfully completed", cx, 640, 0.5, 0.5)

	dc.SetFontFace(face(r.bold, r.size*1.6))
	dc.SetColor(colorText)
	dc.DrawStringWrapped(cert.CourseName, cx, 730, 0.5, 0.5, width-400, 1.3, gg.AlignCenter)

	dc.SetFontFace(face(r.regular, r.size*0.8))
	dc.SetColor(colorMuted)
	dc.DrawStringAnchored("Issued "+cert.IssueDate.UTC().Format("January 2, 2006")+" by "+cert.IssuerName, cx, 880, 0.5, 0.5)
	dc.DrawStringAnchored("Certificate ID "+cert.ID, cx, 930, 0.5, 0.5)

	dc.SetFontFace(face(r.regular, r.size*0.55))
	dc.DrawStringAnchored(cert.VerificationURL, cx, 990, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
