package query

import (
	"fmt"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

// DisplayURL is the URL shown for rec: the thumbnail of an image when it
// has one, otherwise the full asset.
func DisplayURL(n *s3url.Normalizer, rec model.MediaRecord) string {
	if rec.FileType == model.FileTypeImage && rec.ThumbnailURL != "" {
		return n.HTTPS(rec.ThumbnailURL)
	}
	return n.HTTPS(rec.PrimaryURL)
}

// Shape builds the display form of rec.
func Shape(n *s3url.Normalizer, rec model.MediaRecord) model.FileResult {
	return model.FileResult{
		URL:           DisplayURL(n, rec),
		FullURL:       n.HTTPS(rec.PrimaryURL),
		FileName:      rec.FileName,
		FileType:      rec.FileType,
		DetectedBirds: rec.SpeciesCounts(),
		UploadDate:    rec.UploadTimestamp,
		FileID:        rec.ID,
	}
}

// Summarize tallies matches by media kind.
func Summarize(scanned int, matches []model.MediaRecord) model.SearchSummary {
	s := model.SearchSummary{TotalFilesScanned: scanned, MatchingFiles: len(matches)}
	for _, rec := range matches {
		switch rec.FileType {
		case model.FileTypeImage:
			s.ImageCount++
		case model.FileTypeVideo:
			s.VideoCount++
		case model.FileTypeAudio:
			s.AudioCount++
		}
	}
	return s
}

// Respond assembles a search response. Links and Results are never nil so
// an empty search encodes as [] rather than null.
func Respond(n *s3url.Normalizer, scanned int, matches []model.MediaRecord) model.SearchResponse {
	resp := model.SearchResponse{
		Links:      make([]string, 0, len(matches)),
		Results:    make([]model.FileResult, 0, len(matches)),
		TotalCount: len(matches),
		Summary:    Summarize(scanned, matches),
	}
	for _, rec := range matches {
		result := Shape(n, rec)
		resp.Links = append(resp.Links, result.URL)
		resp.Results = append(resp.Results, result)
	}
	if len(matches) == 0 {
		resp.Message = "No matching files found"
	} else {
		resp.Message = fmt.Sprintf("Found %d matching files", len(matches))
	}
	return resp
}
