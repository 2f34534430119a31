// Package sl содержит вспомогательные функции для работы с логгером slog.
// Они единообразно формируют структурированные поля лога
// для ошибок, операций и экземпляров браузерных сессий.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil возвращается пустая строка, чтобы логирование не паниковало
// на ветках, где ошибка необязательна.
//
// Пример:
//
//	log.Error("failed to fetch user data", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op возвращает атрибут с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// Instance возвращает атрибут с идентификатором браузерного экземпляра.
func Instance(id string) slog.Attr {
	return slog.String("instance", id)
}
