package token

// Dictionary holds the word list used for CJK segmentation. It is immutable
// after construction and injected into the Extractor rather than kept as
// package state, so alternative dictionaries can be supplied in tests or
// per deployment.
type Dictionary struct {
	words   map[string]struct{}
	maxRune int
}

// NewDictionary builds a dictionary from the given words.
func NewDictionary(words []string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}

	for _, w := range words {
		runes := []rune(w)
		if len(runes) == 0 {
			continue
		}

		d.words[w] = struct{}{}

		if len(runes) > d.maxRune {
			d.maxRune = len(runes)
		}
	}

	return d
}

// Contains reports whether the word is in the dictionary.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[word]
	return ok
}

// segmentForward runs greedy longest-match from the left. Any rune that
// starts no dictionary word becomes its own one-rune token, which guarantees
// the scan always advances.
func (d *Dictionary) segmentForward(runes []rune) []string {
	var out []string

	for i := 0; i < len(runes); {
		end := i + d.maxRune
		if end > len(runes) {
			end = len(runes)
		}

		matched := 1

		for j := end; j > i+1; j-- {
			if d.Contains(string(runes[i:j])) {
				matched = j - i
				break
			}
		}

		out = append(out, string(runes[i:i+matched]))
		i += matched
	}

	return out
}

// segmentBackward runs greedy longest-match from the right.
func (d *Dictionary) segmentBackward(runes []rune) []string {
	var out []string

	for i := len(runes); i > 0; {
		start := i - d.maxRune
		if start < 0 {
			start = 0
		}

		matched := 1

		for j := start; j < i-1; j++ {
			if d.Contains(string(runes[j:i])) {
				matched = i - j
				break
			}
		}

		out = append(out, string(runes[i-matched:i]))
		i -= matched
	}

	// Tokens were collected right-to-left.
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}

	return out
}

// Segment applies bidirectional maximum matching: both greedy directions run
// and the one producing fewer tokens wins, on the heuristic that fewer tokens
// means longer matched words. Ties go to the backward pass, which in practice
// handles Chinese suffix patterns better. The tie-break is empirically tuned,
// not a correctness property.
func (d *Dictionary) Segment(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}

	fwd := d.segmentForward(runes)
	bwd := d.segmentBackward(runes)

	if len(fwd) < len(bwd) {
		return fwd
	}

	return bwd
}

// DefaultDictionary returns the built-in segmentation word list. It covers
// common database/analytics vocabulary plus everyday time and quantity words
// that show up in query phrasing.
func DefaultDictionary() *Dictionary {
	return NewDictionary(defaultDictionaryWords)
}

var defaultDictionaryWords = []string{
	// Database vocabulary.
	"数据库", "数据", "查询", "字段", "索引", "主键", "外键", "视图",
	"表格", "记录", "排序", "分组", "统计", "汇总", "过滤", "条件",
	"连接", "关联", "去重", "分页", "备份", "导出", "导入",
	// Business entities.
	"用户", "客户", "订单", "商品", "产品", "价格", "金额", "数量",
	"库存", "销售", "销量", "员工", "部门", "工资", "薪资", "公司",
	"地址", "电话", "邮箱", "姓名", "编号", "状态", "类型", "类别",
	"供应商", "仓库", "物流", "发货", "收货", "退款", "支付",
	// Actions.
	"显示", "列出", "查找", "查看", "创建", "删除", "更新", "修改",
	"插入", "新增", "计算", "分析", "比较", "报表",
	// Time and quantity.
	"今天", "昨天", "明天", "本周", "上周", "本月", "上月", "上个月",
	"今年", "去年", "年份", "月份", "日期", "时间", "最近", "之前",
	"最大", "最小", "最高", "最低", "平均", "总数", "总计", "合计",
	"前十", "排名", "第一", "最多", "最少", "增长", "下降",
}
