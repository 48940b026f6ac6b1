package model

// ErrorResponse is returned for any failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// UploadResponse is returned on a successful presigned upload request.
type UploadResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// RetagEntry describes one record touched (or skipped) by a bulk retag.
type RetagEntry struct {
	URL      string   `json:"url"`
	FileID   int64    `json:"fileId"`
	FileType FileType `json:"fileType"`
	Tags     []string `json:"tags,omitempty"`
	Counts   []int    `json:"counts,omitempty"`
}

// RetagResponse is the per-key processing log of a bulk retag.
type RetagResponse struct {
	Message  string       `json:"message"`
	Updated  []RetagEntry `json:"updated"`
	Skipped  []RetagEntry `json:"skipped"`
	NotFound []string     `json:"notFound"`
}

// FileResult is the display shape of a matched record.
type FileResult struct {
	URL           string         `json:"url"`
	FullURL       string         `json:"fullUrl"`
	FileName      string         `json:"fileName"`
	FileType      FileType       `json:"fileType"`
	DetectedBirds map[string]int `json:"detectedBirds"`
	UploadDate    string         `json:"uploadDate"`
	FileID        int64          `json:"fileId"`
}

// SearchSummary tallies a search by media kind.
type SearchSummary struct {
	TotalFilesScanned int `json:"totalFilesScanned"`
	MatchingFiles     int `json:"matchingFiles"`
	ImageCount        int `json:"imageCount"`
	VideoCount        int `json:"videoCount"`
	AudioCount        int `json:"audioCount"`
}

// SearchResponse is returned by both search endpoints.
type SearchResponse struct {
	Message        string         `json:"message"`
	Links          []string       `json:"links"`
	Results        []FileResult   `json:"results"`
	TotalCount     int            `json:"totalCount"`
	SearchCriteria SearchCriteria `json:"searchCriteria,omitempty"`
	SearchTags     []string       `json:"searchTags,omitempty"`
	SearchCounts   []int          `json:"searchCounts,omitempty"`
	Summary        SearchSummary  `json:"summary"`
}

// FileInfo describes the record behind a thumbnail.
type FileInfo struct {
	FileName      string         `json:"fileName"`
	FileID        int64          `json:"fileId"`
	UploadDate    string         `json:"uploadDate"`
	DetectedBirds map[string]int `json:"detectedBirds"`
}

// ThumbnailResponse is returned when a thumbnail resolves to a record.
type ThumbnailResponse struct {
	Success      bool     `json:"success"`
	FullSizeURL  string   `json:"fullSizeUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	FileInfo     FileInfo `json:"fileInfo"`
	Message      string   `json:"message"`
}

// ThumbnailNotFoundResponse echoes the searched URL in both forms.
type ThumbnailNotFoundResponse struct {
	Error         string `json:"error"`
	SearchedURL   string `json:"searchedUrl"`
	NormalizedURL string `json:"normalizedUrl"`
}

// DeletedFile is one successful deletion.
type DeletedFile struct {
	FileID      int64    `json:"fileId"`
	FileName    string   `json:"fileName"`
	FileType    FileType `json:"fileType"`
	DeletedFrom []string `json:"deletedFrom"`
	Warnings    []string `json:"warnings,omitempty"`
}

// FailedFile is one deletion whose metadata removal failed.
type FailedFile struct {
	FileID   int64    `json:"fileId"`
	FileName string   `json:"fileName"`
	FileType FileType `json:"fileType"`
	Error    string   `json:"error"`
}

// DeleteSummary counts the outcome of a bulk delete.
type DeleteSummary struct {
	TotalRequested      int `json:"totalRequested"`
	SuccessfulDeletions int `json:"successfulDeletions"`
	FailedDeletions     int `json:"failedDeletions"`
}

// DeleteResponse itemizes a bulk delete.
type DeleteResponse struct {
	Success  bool          `json:"success"`
	Deleted  []DeletedFile `json:"deleted"`
	Failed   []FailedFile  `json:"failed"`
	NotFound []string      `json:"notFound,omitempty"`
	Summary  DeleteSummary `json:"summary"`
	Message  string        `json:"message"`
}

// DeleteNotFoundResponse echoes the inputs when nothing matched.
type DeleteNotFoundResponse struct {
	Error        string   `json:"error"`
	SearchedURLs []string `json:"searchedUrls"`
	SearchedIDs  []string `json:"searchedIds"`
}
