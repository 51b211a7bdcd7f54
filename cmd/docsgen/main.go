// Генерация документации об ошибках ядра редактора в формате Markdown.
// Анализирует файл с определениями ошибок и создает Markdown-документ с таблицей, содержащей коды ошибок, сообщения и переводы на русский язык.
//
// Основные возможности:
//   - Чтение файла Go с определениями ошибок.
//   - Извлечение информации об ошибках из определения.
//   - Генерация Markdown-таблицы с информацией об ошибках.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"strings"

	md "github.com/nao1215/markdown"
)

// main - главная функция программы. Считывает определения ошибок из указанного файла, генерирует Markdown-таблицу и сохраняет её в указанный файл.
//
// Параметры:
//   - src: путь к файлу с определениями ошибок.
//   - out: путь к файлу, куда будет сохранена Markdown-таблица с ошибками.
func main() {
	errorsFile := flag.String("src", "internal/richtext/ederrors/ederrors.go", "Path of ederrors.go")
	outputMd := flag.String("out", "editor_errors.md", "Path to output md")
	flag.Parse()

	slog.Info("Generate editor errors docs", "src", *errorsFile, "out", *outputMd)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, *errorsFile, nil, 0)
	if err != nil {
		slog.Error("Parse errors file", "err", err)
		os.Exit(1)
	}

	ff, err := os.Create(*outputMd)
	if err != nil {
		slog.Error("Create output file", "err", err)
		os.Exit(1)
	}
	defer ff.Close()

	if err := md.NewMarkdown(ff).
		H1("Перечень кодов ошибок редактора").
		PlainText("Ошибки адресации и структуры не показываются пользователю: операция отменяется, ошибка пишется в лог.").
		CustomTable(md.TableSet{
			Header: []string{"Код", "Сообщение", "Сообщение на русском"},
			Rows:   getRows(f),
		}, md.TableOptions{
			AutoWrapText: false,
		}).Build(); err != nil {
		slog.Error("Generate docs fail", "err", err)
	} else {
		slog.Info("Docs generated")
	}
}

// getRows собирает строки таблицы из объявлений DefinedError.
func getRows(f *ast.File) [][]string {
	var rows [][]string
	for _, d := range f.Decls {
		decl, ok := d.(*ast.GenDecl)
		if !ok || decl.Tok != token.VAR {
			continue
		}
		for _, spec := range decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, v := range vs.Values {
				lit, ok := v.(*ast.CompositeLit)
				if !ok || fmt.Sprint(lit.Type) != "DefinedError" {
					continue
				}
				rows = append(rows, getRow(lit))
			}
		}
	}
	return rows
}

func getRow(lit *ast.CompositeLit) []string {
	row := make([]string, 3)
	for _, v := range lit.Elts {
		param, ok := v.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		value, ok := param.Value.(*ast.BasicLit)
		if !ok {
			continue
		}
		switch fmt.Sprint(param.Key) {
		case "Code":
			row[0] = md.Bold(value.Value)
		case "Err":
			row[1] = md.Code(strings.Trim(value.Value, "\""))
		case "RuErr":
			row[2] = md.Code(strings.Trim(value.Value, "\""))
		}
	}
	return row
}
