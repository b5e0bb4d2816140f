// Package pdf burns signature marks and watermarks into PDF documents.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/domain/services"
	"esign.backend/internal/infrastructure/metrics"
)

// WatermarkLabel prefixes the signing timestamp on every page
const WatermarkLabel = "ELECTRONICALLY SIGNED"

var pdfMagic = []byte("%PDF-")

var errEmptyMark = errors.New("either a signature image or typed signature is required")

// Marker implements services.DocumentMarker on top of pdfcpu
type Marker struct {
	newConf func() *model.Configuration
}

func NewMarker() *Marker {
	return &Marker{
		newConf: func() *model.Configuration {
			conf := model.NewDefaultConfiguration()
			conf.ValidationMode = model.ValidationRelaxed
			return conf
		},
	}
}

// WatermarkText renders the label for a signing time
func WatermarkText(signedAt time.Time) string {
	return WatermarkLabel + " " + signedAt.UTC().Format(time.RFC3339)
}

func (m *Marker) MarkDocument(ctx context.Context, req services.MarkRequest) (*services.MarkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(req.Source, pdfMagic) {
		return nil, domainerrors.PdfProcessing(StageLoad, errors.New("input is not a PDF document"))
	}

	var img *signatureImage
	if strings.TrimSpace(req.SignatureImage) != "" {
		var err error
		if img, err = decodeImage(req.SignatureImage); err != nil {
			return nil, err
		}
	} else if strings.TrimSpace(req.TypedSignature) == "" {
		return nil, domainerrors.PdfProcessing(StageEmbed, errEmptyMark)
	}

	conf := m.newConf()

	start := time.Now()
	dims, err := api.PageDims(bytes.NewReader(req.Source), conf)
	metrics.ObserveStage(StageLoad, start)
	if err != nil {
		return nil, domainerrors.PdfProcessing(StageLoad, err)
	}
	if len(dims) == 0 {
		return nil, domainerrors.PdfProcessing(StageLoad, errors.New("document has no pages"))
	}

	page := pageFor(req.Override, len(dims))
	dim := dims[page-1]
	box := Place(req.DocumentType, dim.Width, dim.Height, req.Override)

	start = time.Now()
	stamped, err := m.embed(req.Source, page, box, img, req.TypedSignature, conf)
	metrics.ObserveStage(StageEmbed, start)
	if err != nil {
		return nil, domainerrors.PdfProcessing(StageEmbed, err)
	}

	signedAt := req.SignedAt
	if signedAt.IsZero() {
		signedAt = time.Now()
	}
	text := WatermarkText(signedAt)

	start = time.Now()
	watermarked, err := watermark(stamped, text, conf)
	metrics.ObserveStage(StageWatermark, start)
	if err != nil {
		return nil, domainerrors.PdfProcessing(StageWatermark, err)
	}

	if !bytes.HasPrefix(watermarked, pdfMagic) {
		return nil, domainerrors.PdfProcessing(StageSave, errors.New("marked output is not a PDF document"))
	}

	return &services.MarkResult{
		Content:       watermarked,
		OriginalSize:  len(req.Source),
		SignedSize:    len(watermarked),
		Placement:     box.coordinates(page),
		WatermarkText: text,
	}, nil
}

func (m *Marker) embed(src []byte, page int, box Box, img *signatureImage, typed string, conf *model.Configuration) ([]byte, error) {
	var (
		wm  *model.Watermark
		err error
	)
	if img != nil {
		scale, drawn := fitImage(box, img.width, img.height)
		desc := fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:%.4f abs, rotation:0, opacity:1",
			drawn.X, drawn.Y, scale)
		wm, err = api.ImageWatermarkForReader(bytes.NewReader(img.data), desc, true, false, types.POINTS)
	} else {
		size, x, y := typedLayout(box, typed)
		desc := fmt.Sprintf("fontname:%s, points:%d, fillcolor:0 0 0, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, opacity:1",
			typedFont, size, x, y)
		wm, err = api.TextWatermark(typed, desc, true, false, types.POINTS)
	}
	if err != nil {
		return nil, fmt.Errorf("build signature mark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(src), &out, []string{strconv.Itoa(page)}, wm, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func watermark(src []byte, text string, conf *model.Configuration) ([]byte, error) {
	wm, err := api.TextWatermark(text,
		"fontname:Helvetica, points:48, fillcolor:0.75 0.75 0.75, position:c, scalefactor:0.6 rel, rotation:0, opacity:0.3",
		true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build watermark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(src), &out, nil, wm, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
