package topic

type InCreateTopic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}
