package models

import "time"

// Notice представляет одно объявление, извлечённое из страницы-списка источника.
// ExternalID - стабильный идентификатор (номер статьи из ссылки), по нему идёт дедупликация;
// он не зависит от позиции строки на странице.
type Notice struct {
	SourceKey  string     `json:"source_key"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
	ExternalID string     `json:"external_id"`

	// Author пуст, если доска не показывает автора.
	Author string `json:"author,omitempty"`
}

// DedupEntry - запись хранилища: пара (источник, идентификатор) и время первого появления.
type DedupEntry struct {
	SourceKey   string    `json:"source_key"`
	ExternalID  string    `json:"external_id"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}
