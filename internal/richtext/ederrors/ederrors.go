// Пакет содержит определения ошибок ядра редактора: адресация, структура дерева, импорт и конфигурация.
// Каждая ошибка имеет код и описание на английском и русском языках.
//
// Основные возможности:
//   - Определение ошибок адресации (устаревший путь, отсутствие выделения).
//   - Определение ошибок нарушения инвариантов дерева.
//   - Определение ошибок импорта HTML и разбора JSON-документа.
//   - Сравнение ошибок по коду через errors.Is, в том числе для отформатированных копий.
package ederrors

import (
	"fmt"
	"strings"
)

type DefinedError struct {
	Code  int    `json:"code"`
	Err   string `json:"error"`
	RuErr string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал для копий из WithFormattedMessage.
func (e DefinedError) Is(target error) bool {
	t, ok := target.(DefinedError)
	return ok && t.Code == e.Code
}

var (
	// 1*** - addressing errors
	ErrPathNotFound = DefinedError{Code: 1001, Err: "path %s not found", RuErr: "Путь %s не найден в документе"}
	ErrStaleAddress = DefinedError{Code: 1002, Err: "address %s does not resolve in current tree", RuErr: "Адрес %s устарел"}
	ErrNoSelection  = DefinedError{Code: 1003, Err: "editor has no selection", RuErr: "Нет выделения"}
	ErrNotText      = DefinedError{Code: 1004, Err: "node at %s is not a text node", RuErr: "Узел %s не является текстом"}

	// 2*** - structure errors
	ErrInvalidStructure = DefinedError{Code: 2001, Err: "operation violates tree invariant: %s", RuErr: "Операция нарушает структуру документа: %s"}
	ErrNestedLink       = DefinedError{Code: 2002, Err: "link can not be nested in another link", RuErr: "Ссылка не может содержать другую ссылку"}
	ErrEmptyWrapper     = DefinedError{Code: 2003, Err: "wrapper would have no children", RuErr: "Обертка не может быть пустой"}

	// 3*** - import and codec errors
	ErrMalformedImport   = DefinedError{Code: 3001, Err: "malformed html import: %s", RuErr: "Не удалось разобрать вставляемый HTML: %s"}
	ErrImportTooLarge    = DefinedError{Code: 3002, Err: "import of %d bytes exceeds limit", RuErr: "Размер вставки %d байт превышает ограничение"}
	ErrMalformedDocument = DefinedError{Code: 3003, Err: "malformed document: %s", RuErr: "Некорректный документ: %s"}

	// 4*** - configuration errors
	ErrInvalidConfig = DefinedError{Code: 4001, Err: "invalid config: %s", RuErr: "Некорректная конфигурация: %s"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
