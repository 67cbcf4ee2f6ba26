package timecalc

import (
	"fmt"
	"time"
)

// FormatHM 将时长格式化为 H:MM，向下取整到分钟
func FormatHM(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// FormatHMS 将时长格式化为 HH:MM:SS，用于实时计时显示
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Seconds 时长的整秒数（向下取整）
func Seconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
