package sources

// VideoFile é uma variante encodada de um vídeo (qualidade hd/sd/uhd).
type VideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// RawVideo é um candidato cru vindo da fonte, antes do filtro de formato
// e da deduplicação.
type RawVideo struct {
	ID       int64  `json:"id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	User     struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"user"`
	VideoFiles []VideoFile `json:"video_files"`
}

// searchResponse representa a resposta da API de busca de vídeos do Pexels.
type searchResponse struct {
	Page         int        `json:"page"`
	PerPage      int        `json:"per_page"`
	TotalResults int        `json:"total_results"`
	Videos       []RawVideo `json:"videos"`
}
