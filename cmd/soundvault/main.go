// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/soundvault/pkg/cmd"
)

//	@title			SoundVault API
//	@version		1.0
//	@description	SoundVault 是一个个人音频托管服务，提供用户注册、登录、音频上传管理与按用户子域名的音频流访问.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
