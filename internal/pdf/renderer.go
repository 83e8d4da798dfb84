package pdf

import (
	"context"
	"fmt"

	"eventsite_backend/platform/logger"
)

// Generator turns document data into PDF bytes.
type Generator func(QuoteDocumentData) ([]byte, error)

// Renderer produces quote documents, degrading from the full layout to the
// fallback page instead of failing.
type Renderer struct {
	primary  Generator
	fallback Generator
	logo     LogoLoader
	log      *logger.Logger
}

// NewRenderer creates a renderer using the maroto layout with the gofpdf fallback.
func NewRenderer(log *logger.Logger) *Renderer {
	return &Renderer{
		primary:  GenerateQuotePDF,
		fallback: GenerateFallbackDocument,
		log:      log,
	}
}

// SetLogoLoader injects where the header logo comes from. Without one the
// header is text-only.
func (r *Renderer) SetLogoLoader(l LogoLoader) {
	r.logo = l
}

// Render produces the document for data. The full layout is attempted once;
// on any error or panic the fallback page is rendered. Only a failing
// fallback returns an error, wrapping ErrRenderFailure.
func (r *Renderer) Render(ctx context.Context, data QuoteDocumentData) (*Document, error) {
	data.logo = r.loadLogo(ctx, data.QuoteNumber)
	name := Filename(data.QuoteNumber)

	content, primaryErr := safeGenerate(r.primary, data)
	if primaryErr == nil {
		return &Document{Bytes: content, Filename: name}, nil
	}
	r.log.Warn("quote document render failed, using fallback", "quoteNumber", data.QuoteNumber, "error", primaryErr)

	content, fallbackErr := safeGenerate(r.fallback, data)
	if fallbackErr != nil {
		r.log.Error("fallback quote document render failed", "quoteNumber", data.QuoteNumber, "error", fallbackErr)
		return nil, fmt.Errorf("%w: primary: %v; fallback: %v", ErrRenderFailure, primaryErr, fallbackErr)
	}
	return &Document{Bytes: content, Filename: name, Fallback: true}, nil
}

func (r *Renderer) loadLogo(ctx context.Context, quoteNumber string) *logoImage {
	if r.logo == nil {
		return nil
	}
	raw, err := r.logo.LoadLogo(ctx)
	if err != nil {
		r.log.Warn("logo unavailable, rendering text header", "quoteNumber", quoteNumber, "error", err)
		return nil
	}
	img, err := decodeLogo(raw)
	if err != nil {
		r.log.Warn("logo unreadable, rendering text header", "quoteNumber", quoteNumber, "error", err)
		return nil
	}
	return img
}

func safeGenerate(gen Generator, data QuoteDocumentData) (content []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			content = nil
			err = fmt.Errorf("render panic: %v", rec)
		}
	}()

	content, err = gen(data)
	if err == nil && len(content) == 0 {
		err = fmt.Errorf("renderer produced an empty document")
	}
	return content, err
}
