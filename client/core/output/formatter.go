// Package output provides output formatting functionality for client commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Format 输出格式
type Format string

const (
	// FormatJSON JSON格式
	FormatJSON Format = "json"
	// FormatPretty 美化JSON格式
	FormatPretty Format = "pretty"
	// FormatText 纯文本格式（默认）
	FormatText Format = "text"
)

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据输出（JSON等）
	logWriter io.Writer // 提示输出（Success/Error等）
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}

	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr, // 提示输出到stderr，避免污染JSON
	}
}

// SetSilent 设置静默模式
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 打印数据输出
func (f *Formatter) Print(data interface{}) error {
	switch f.format {
	case FormatJSON:
		return f.printJSON(data, false)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, true)
	}
}

// printText 打印纯文本格式（键按字典序，一行一对）
func (f *Formatter) printText(data interface{}) error {
	fields, ok := data.(map[string]interface{})
	if !ok {
		// 非键值结构退回美化JSON
		return f.printJSON(data, true)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(f.writer, "%s: %v\n", k, fields[k]); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	return nil
}

// printJSON 打印JSON格式
func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintln(f.writer, string(output)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

// Success 打印成功提示
func (f *Formatter) Success(format string, args ...interface{}) {
	if f.silent {
		return
	}
	fmt.Fprintf(f.logWriter, "✅ "+format+"\n", args...)
}

// Info 打印信息提示
func (f *Formatter) Info(format string, args ...interface{}) {
	if f.silent {
		return
	}
	fmt.Fprintf(f.logWriter, format+"\n", args...)
}

// Warn 打印警告提示
func (f *Formatter) Warn(format string, args ...interface{}) {
	if f.silent {
		return
	}
	fmt.Fprintf(f.logWriter, "⚠️  "+format+"\n", args...)
}

// Error 打印错误提示
func (f *Formatter) Error(format string, args ...interface{}) {
	fmt.Fprintf(f.logWriter, "❌ "+format+"\n", args...)
}
