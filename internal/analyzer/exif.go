package analyzer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/tournx/webaudit/internal/model"
)

// ErrNoHTTPClient is returned when no HTTP client is configured.
var ErrNoHTTPClient = errors.New("no HTTP client configured: must use SetHTTPClient before analysis")

// EXIFAnalyzer extracts and inspects EXIF metadata from served images.
// Published EXIF data is a privacy leak (GPS coordinates, author names)
// and a sign that images are uploaded without an optimization pipeline,
// which also costs page weight.
//
// The analyzer fetches images itself and therefore requires an HTTP
// client via SetHTTPClient. Only same-origin images are fetched: the
// audit must not generate traffic against third-party hosts.
type EXIFAnalyzer struct {
	// httpClient for fetching images.
	httpClient *http.Client

	// maxImageSize limits the size of images to download (default 5MB).
	maxImageSize int64

	// imageURLPattern matches URL extensions of EXIF-capable formats.
	imageURLPattern *regexp.Regexp

	// maxImages bounds the number of images fetched per audit.
	maxImages int
}

// NewEXIFAnalyzer creates a new EXIFAnalyzer.
// NOTE: You MUST call SetHTTPClient before use.
func NewEXIFAnalyzer() *EXIFAnalyzer {
	return &EXIFAnalyzer{
		maxImageSize:    5 * 1024 * 1024, // 5MB
		imageURLPattern: regexp.MustCompile(`(?i)\.(jpe?g|tiff?)(?:\?[^"'\s]*)?$`),
		maxImages:       20,
	}
}

// SetHTTPClient injects the HTTP client used for image fetches.
func (a *EXIFAnalyzer) SetHTTPClient(client *http.Client) {
	a.httpClient = client
}

// Name returns the analyzer name.
func (a *EXIFAnalyzer) Name() string {
	return "exif"
}

// Category returns the analyzer category.
func (a *EXIFAnalyzer) Category() string {
	return CategoryTechnical
}

// Analyze fetches same-origin JPEG/TIFF images and reports those that
// still carry EXIF metadata.
func (a *EXIFAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	if a.httpClient == nil {
		return nil, ErrNoHTTPClient
	}

	findings := make([]model.Finding, 0)
	processed := make(map[string]bool)

	for _, page := range data.Pages {
		for _, img := range page.Images {
			select {
			case <-ctx.Done():
				return findings, ctx.Err()
			default:
			}

			if len(processed) >= a.maxImages {
				return findings, nil
			}

			imgURL := img.Source
			if imgURL == "" || processed[imgURL] {
				continue
			}
			processed[imgURL] = true

			if !a.imageURLPattern.MatchString(imgURL) {
				continue
			}
			if !a.sameOrigin(imgURL, data.Domain) {
				continue
			}

			findings = append(findings, a.analyzeImage(ctx, imgURL, page.URL)...)
		}
	}

	return findings, nil
}

// sameOrigin checks that the image is served by the audited host.
func (a *EXIFAnalyzer) sameOrigin(imageURL, domain string) bool {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), domain)
}

// analyzeImage fetches one image and inspects its EXIF block.
func (a *EXIFAnalyzer) analyzeImage(ctx context.Context, imageURL, pageURL string) []model.Finding {
	findings := make([]model.Finding, 0)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return findings
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return findings
	}
	defer resp.Body.Close()

	if resp.ContentLength > a.maxImageSize {
		return findings
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, a.maxImageSize))
	if err != nil {
		return findings
	}

	return a.analyzeImageData(imageData, imageURL, pageURL)
}

// analyzeImageData reports the notable EXIF tags found in image bytes.
// One finding per image: the report cares that metadata was published,
// not about every individual tag.
func (a *EXIFAnalyzer) analyzeImageData(imageData []byte, imageURL, pageURL string) []model.Finding {
	findings := make([]model.Finding, 0)

	rawExif, err := exif.SearchAndExtractExif(imageData)
	if err != nil || rawExif == nil {
		return findings
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil || len(entries) == 0 {
		return findings
	}

	var notable []string
	for _, entry := range entries {
		switch entry.TagName {
		case "GPSLatitude", "GPSLongitude":
			notable = append(notable, "GPS coordinates")
		case "Artist", "Copyright":
			notable = append(notable, entry.TagName)
		case "Make", "Model", "Software", "ProcessingSoftware", "DateTimeOriginal":
			notable = append(notable, entry.TagName)
		}
	}

	value := "EXIF block present"
	if len(notable) > 0 {
		value = strings.Join(dedupeStrings(notable), ", ")
	}

	f := model.NewFinding("image_exif_metadata", CategoryTechnical,
		"Image Served With EXIF Metadata", value, pageURL)
	f.Description = "Affected image: " + imageURL
	findings = append(findings, f)

	return findings
}

// dedupeStrings removes duplicates while preserving order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
