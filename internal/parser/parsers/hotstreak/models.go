package hotstreak

// API models for HotStreak (api3.hotstreak.gg/graphql).
// Search: POST, operationName=search — игроки с markets64.
// System: POST, operationName=system — справочник спортов и категорий.

type graphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// searchResponse — ответ search-запроса.
type searchResponse struct {
	Data struct {
		Search struct {
			Results []searchResult `json:"results"`
		} `json:"search"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type searchResult struct {
	Markets64   string `json:"markets64"`
	Participant struct {
		Player struct {
			FirstName string `json:"firstName"`
			FullName  string `json:"fullName"`
		} `json:"player"`
	} `json:"participant"`
}

// systemResponse — ответ system-запроса.
type systemResponse struct {
	Data struct {
		System struct {
			Sports []sportItem `json:"sports"`
		} `json:"system"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type sportItem struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Categories []categoryItem `json:"categories"`
}

type categoryItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GroupName string `json:"groupName"`
}
