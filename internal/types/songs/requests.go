package songs

// UploadMetadata is the form metadata sent alongside uploaded files
type UploadMetadata struct {
	Artist string `json:"artist" validate:"omitempty,max=30"`
	Genre  Genre  `json:"genre" validate:"omitempty,genre"`
	Tags   []Tag  `json:"tags" validate:"omitempty,max=10,dive,tag"`
}

// UpdateSongRequest is the body of PATCH /songs/{id}
type UpdateSongRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=200"`
	Artist *string `json:"artist" validate:"omitempty,min=1,max=30"`
	Genre  *Genre  `json:"genre" validate:"omitempty,genre"`
	Tags   *[]Tag  `json:"tags" validate:"omitempty,max=10,dive,tag"`
}

// Patch converts the request into a store patch with normalized values
func (r UpdateSongRequest) Patch() Patch {
	p := Patch{Title: r.Title, Genre: r.Genre}
	if r.Artist != nil {
		artist := NormalizeArtist(*r.Artist)
		p.Artist = &artist
	}
	if r.Tags != nil {
		tags := NormalizeTags(*r.Tags)
		p.Tags = &tags
	}
	return p
}

// Skipped reports a file that did not make it into the catalog
type Skipped struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// UploadSummary carries the counts of an ingestion batch
type UploadSummary struct {
	TotalFiles   int `json:"total_files"`
	UploadCount  int `json:"upload_count"`
	SkippedCount int `json:"skipped_count"`
}

// UploadResult is the outcome of an ingestion batch
type UploadResult struct {
	Uploaded []Song        `json:"uploaded"`
	Skipped  []Skipped     `json:"skipped"`
	Summary  UploadSummary `json:"summary"`
}
