package thread

type InCreateThread struct {
	Content string  `json:"content"`
	GroupID *string `json:"group_id"`
	TopicID *string `json:"topic_id"`
}

type InUpdateThread struct {
	Content string `json:"content"`
}

type InCreateComment struct {
	Content string `json:"content"`
}
