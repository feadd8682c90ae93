package response

// Resp 成功响应；data 始终输出（可为 null）
type Resp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrResp 失败响应，不带 data
type ErrResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func OK(data any) Resp { return Msg("", data) }

func Msg(msg string, data any) Resp {
	if msg == "" {
		msg = "Success"
	}
	return Resp{Success: true, Message: msg, Data: data}
}

// Error customMsg 为空时用状态码默认提示
func Error(status int, customMsg string) ErrResp {
	msg := CodeMsgMap[status]
	if customMsg != "" {
		msg = customMsg
	}
	return ErrResp{Success: false, Message: msg}
}
