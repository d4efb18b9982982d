package domain

import "fmt"

// CanvasState 定义了画布状态的缓存数据结构。
// 使用 map 将坐标（格式化为 "x:y" 字符串）映射到颜色字符串。
type CanvasState map[string]string // 例如: {"10:20": "#FF0000", "11:21": "#0000FF"}

// CellKey 把格子坐标格式化为状态缓存使用的字段名。
func CellKey(x, y int) string {
	return fmt.Sprintf("%d:%d", x, y)
}

// ParseCellKey 把 "x:y" 字段名解析回坐标。
func ParseCellKey(key string) (x, y int, err error) {
	if _, err = fmt.Sscanf(key, "%d:%d", &x, &y); err != nil {
		return 0, 0, fmt.Errorf("invalid cell key %q: %w", key, err)
	}
	return x, y, nil
}
