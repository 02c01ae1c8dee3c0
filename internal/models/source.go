package models

import (
	"fmt"
	"strings"
)

// Kind задаёт вариант разметки страницы-списка и, соответственно, парсер.
type Kind string

const (
	KindEgov      Kind = "egov"
	KindPhpMaster Kind = "php_master"
	KindCIBoard   Kind = "ciboard"
	KindXEBoard   Kind = "xe_board"
)

// Kinds возвращает все объявленные варианты парсеров.
func Kinds() []Kind {
	return []Kind{KindEgov, KindPhpMaster, KindCIBoard, KindXEBoard}
}

// ParseKind превращает строку из конфигурации в Kind; неизвестные значения - ошибка.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown parser kind %q", s)
}

// Source - один настроенный источник объявлений. Неизменяем в течение прогона.
type Source struct {
	Key         string
	DisplayName string
	Kind        Kind
	BaseURL     string
	Enabled     bool
	Params      map[string]string
	// Channel переопределяет канал доставки по умолчанию, если не пуст.
	Channel string
}

// Param возвращает параметр парсера или def, если он не задан.
func (s Source) Param(name, def string) string {
	if v, ok := s.Params[name]; ok && v != "" {
		return v
	}
	return def
}
