package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"collage_field_v1/internal/api/dto"
	"collage_field_v1/internal/model"
	"collage_field_v1/internal/service"
	"collage_field_v1/pkg/utils"
)

// exec 子命令退出码
const (
	exitCodeFailed      = 1
	exitCodeConfigError = 2
)

var inputPath string

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "执行一次拼图字段并输出结果信封",
	Long: `从文件或 stdin 读取表单参数，调用拼图服务一次并以 JSON 输出结果。
输入既可以是 {"formItemParams": {...}}，也可以直接是表单参数对象。
配置类错误退出码为 2，其他错误退出码为 1。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readFormInput(inputPath)
		if err != nil {
			return err
		}

		deps, err := initDependencies()
		if err != nil {
			return err
		}
		defer closeDependencies(deps)

		ctx := utils.WithRequestID(cmd.Context(), utils.NewRequestID())
		result := deps.Collage.Execute(ctx, in)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		if service.IsConfigError(result) {
			return &exitError{code: exitCodeConfigError, err: errors.New("field configuration error")}
		}
		if !result.OK() {
			return &exitError{code: exitCodeFailed, err: errors.New("execution failed")}
		}
		return nil
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "输出字段注册清单",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(model.DefaultFieldManifest())
	},
}

func init() {
	execCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "表单参数 JSON 文件，- 表示 stdin")
}

// readFormInput 读取表单参数，兼容带 formItemParams 包装和不带包装两种格式
func readFormInput(path string) (*dto.FormInput, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("打开输入文件失败: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取输入失败: %w", err)
	}

	return decodeFormInput(data)
}

func decodeFormInput(data []byte) (*dto.FormInput, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("解析输入失败: %w", err)
	}

	if raw, ok := envelope["formItemParams"]; ok {
		data = raw
	}

	var in dto.FormInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("解析表单参数失败: %w", err)
	}
	return &in, nil
}
