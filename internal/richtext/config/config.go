// Управление конфигурацией редактора из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Значения по умолчанию для параметров, не заданных в окружении.
//   - Преобразование типов данных из переменных окружения (string, int, bool).
//   - Валидация значений тегами validator.
package config

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
)

const (
	DefaultMaxImportBytes = 1 << 20
	DefaultHistoryLimit   = 100
)

type Config struct {
	Trace bool `env:"RICHTEXT_TRACE"`

	LinkDetection  bool     `env:"RICHTEXT_LINK_DETECTION"`
	LinkSchemesRaw string   `env:"RICHTEXT_LINK_SCHEMES"`
	LinkSchemes    []string `validate:"dive,required,alpha"`

	SanitizeImport bool `env:"RICHTEXT_SANITIZE_IMPORT"`
	MinifyImport   bool `env:"RICHTEXT_MINIFY_IMPORT"`
	MaxImportBytes int  `env:"RICHTEXT_MAX_IMPORT_BYTES" validate:"min=0"`

	DefaultBlock string `env:"RICHTEXT_DEFAULT_BLOCK" validate:"oneof=paragraph block-quote heading-one heading-two"`
	HistoryLimit int    `env:"RICHTEXT_HISTORY_LIMIT" validate:"min=0"`

	Metrics bool `env:"RICHTEXT_METRICS"`
}

var validate = validator.New()

// ReadConfig загружает конфигурацию из переменных окружения поверх значений по умолчанию
// и проверяет ее. Некорректные значения возвращаются как ErrInvalidConfig.
func ReadConfig() (*Config, error) {
	config := &Config{
		LinkDetection:  true,
		SanitizeImport: true,
		MinifyImport:   true,
		MaxImportBytes: DefaultMaxImportBytes,
		DefaultBlock:   "paragraph",
		HistoryLimit:   DefaultHistoryLimit,
	}

	envConfig("env", config)

	for _, s := range strings.Split(config.LinkSchemesRaw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			config.LinkSchemes = append(config.LinkSchemes, strings.ToLower(s))
		}
	}

	if err := validate.Struct(config); err != nil {
		slog.Error("Config validation failed", "err", err)
		return nil, ederrors.ErrInvalidConfig.WithFormattedMessage(err.Error())
	}
	return config, nil
}

// LogLevel возвращает уровень логирования с учетом RICHTEXT_TRACE.
func (c *Config) LogLevel() slog.Level {
	if c.Trace {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if fEnvTag == "" || !Exist(fEnvTag) {
			continue
		}

		logValue := GetEnv(fEnvTag)
		if logValue == "" {
			continue
		}

		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(GetEnv(fEnvTag))
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}
