package footballdata

// Wire shapes for the football-data.org v4 matches endpoint. Only the fields
// the sync pipeline consumes are declared; everything else is dropped at
// decode time.

type matchesEnvelope struct {
	Matches []matchItem `json:"matches"`
}

type matchItem struct {
	ID       int64     `json:"id"`
	UTCDate  string    `json:"utcDate"`
	Status   string    `json:"status"`
	Stage    string    `json:"stage"`
	Group    string    `json:"group"`
	Matchday int       `json:"matchday"`
	HomeTeam teamItem  `json:"homeTeam"`
	AwayTeam teamItem  `json:"awayTeam"`
	Score    scoreItem `json:"score"`
}

type teamItem struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type scoreItem struct {
	Winner   string    `json:"winner"`
	Duration string    `json:"duration"`
	FullTime scorePair `json:"fullTime"`
	HalfTime scorePair `json:"halfTime"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}
