package model

// ==================== 拼图服务 ====================

const (
	CollageAPIBaseURL   = "https://collage-service-177821-9-1328689937.sh.run.tcloudbase.com"
	CollageGeneratePath = "/api/upload/generate-from-urls"

	// CollageAPIURL 拼图接口地址，编译期固定，不可配置
	CollageAPIURL = CollageAPIBaseURL + CollageGeneratePath
)

// AllowedDomains 宿主允许字段访问的域名白名单
var AllowedDomains = []string{
	"collage-service-177821-9-1328689937.sh.run.tcloudbase.com",
	"636c-cloud1-9g9prblyc2ea8ed0-1328689937.tcb.qcloud.la",
}

// 图片尺寸选项
const (
	AspectRatio3x4  = "3:4"
	AspectRatio2x3  = "2:3"
	AspectRatio9x16 = "9:16"

	DefaultAspectRatio = AspectRatio3x4
)

// ==================== 表单组件 ====================

// 宿主表单组件类型
const (
	ComponentFieldSelect  = "FieldSelect"
	ComponentSingleSelect = "SingleSelect"
	ComponentInput        = "Input"
)

// 宿主字段类型
const FieldTypeAttachment = "Attachment"

// 表单项 key
const (
	FormKeyAttachments = "attachments"
	FormKeyAspectRatio = "aspectRatio"
	FormKeyTitle       = "title"
	FormKeyAccessToken = "accessToken"
)

// FormOption 单选项
type FormOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormItemProps 表单项组件属性
type FormItemProps struct {
	Placeholder string       `json:"placeholder,omitempty"`
	SupportType []string     `json:"supportType,omitempty"`
	Mode        string       `json:"mode,omitempty"`
	Options     []FormOption `json:"options,omitempty"`
}

// FormItemValidator 表单项校验规则
type FormItemValidator struct {
	Required bool `json:"required"`
}

// FormItem 表单项定义
type FormItem struct {
	Key       string            `json:"key"`
	Label     string            `json:"label"`
	Component string            `json:"component"`
	Props     FormItemProps     `json:"props"`
	Validator FormItemValidator `json:"validator"`
}

// ResultType 字段结果类型
type ResultType struct {
	Type string `json:"type"`
}

// FieldManifest 字段注册清单
// 由宿主注册流程读取，执行逻辑本身不依赖它
type FieldManifest struct {
	DomainList []string   `json:"domainList"`
	FormItems  []FormItem `json:"formItems"`
	ResultType ResultType `json:"resultType"`
}

// DefaultFieldManifest 拼图字段的注册清单
func DefaultFieldManifest() *FieldManifest {
	domains := make([]string, len(AllowedDomains))
	copy(domains, AllowedDomains)

	return &FieldManifest{
		DomainList: domains,
		FormItems: []FormItem{
			{
				Key:       FormKeyAttachments,
				Label:     "选择图片附件",
				Component: ComponentFieldSelect,
				Props: FormItemProps{
					SupportType: []string{FieldTypeAttachment},
					Mode:        "multiple",
				},
				Validator: FormItemValidator{Required: true},
			},
			{
				Key:       FormKeyAspectRatio,
				Label:     "图片尺寸",
				Component: ComponentSingleSelect,
				Props: FormItemProps{
					Placeholder: "请选择图片尺寸",
					Options: []FormOption{
						{Label: AspectRatio3x4, Value: AspectRatio3x4},
						{Label: AspectRatio2x3, Value: AspectRatio2x3},
						{Label: AspectRatio9x16, Value: AspectRatio9x16},
					},
				},
				Validator: FormItemValidator{Required: false},
			},
			{
				Key:       FormKeyTitle,
				Label:     "图片标题",
				Component: ComponentInput,
				Props:     FormItemProps{Placeholder: "请输入拼图标题（可选）"},
				Validator: FormItemValidator{Required: false},
			},
			{
				Key:       FormKeyAccessToken,
				Label:     "访问令牌",
				Component: ComponentInput,
				Props:     FormItemProps{Placeholder: "请输入访问令牌"},
				Validator: FormItemValidator{Required: true},
			},
		},
		ResultType: ResultType{Type: FieldTypeAttachment},
	}
}
