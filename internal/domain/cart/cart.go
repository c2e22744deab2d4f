// Package cart はテーブルカートの明細操作（同一商品のまとめ、数量計算、合計）を扱う。
// DBやキャッシュには触らない。
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

// 1行あたりの上限
const MaxQuantity = 99

var (
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrQuantityTooLarge = errors.New("quantity too large")
	ErrLineNotFound     = errors.New("line not found")
)

// カート1行
type Line struct {
	ID         string `json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
}

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Add は同じ商品の行があれば数量を足し、名前と価格を最新にする。
// 無ければ末尾に追加する。戻り値のcreatedは新規行かどうか。
func Add(lines []Line, in Line) (out []Line, changed Line, created bool, err error) {
	if in.Quantity < 1 {
		return lines, Line{}, false, ErrInvalidQuantity
	}
	if in.Quantity > MaxQuantity {
		return lines, Line{}, false, ErrQuantityTooLarge
	}

	out = make([]Line, len(lines), len(lines)+1)
	copy(out, lines)

	for i := range out {
		if out[i].MenuItemID == in.MenuItemID {
			if out[i].Quantity+in.Quantity > MaxQuantity {
				return lines, Line{}, false, ErrQuantityTooLarge
			}
			out[i].Quantity += in.Quantity
			out[i].Name = in.Name
			out[i].UnitPrice = in.UnitPrice
			return out, out[i], false, nil
		}
	}

	out = append(out, in)
	return out, in, true, nil
}

// SetQuantity は数量を上書きする。0なら行を消す。
func SetQuantity(lines []Line, lineID string, qty int64) (out []Line, changed Line, removed bool, err error) {
	if qty < 0 {
		return lines, Line{}, false, ErrInvalidQuantity
	}
	if qty > MaxQuantity {
		return lines, Line{}, false, ErrQuantityTooLarge
	}

	idx := indexOf(lines, lineID)
	if idx < 0 {
		return lines, Line{}, false, ErrLineNotFound
	}

	if qty == 0 {
		out, err = Remove(lines, lineID)
		return out, lines[idx], true, err
	}

	out = make([]Line, len(lines))
	copy(out, lines)
	out[idx].Quantity = qty
	return out, out[idx], false, nil
}

// Remove は行を削除する。
func Remove(lines []Line, lineID string) ([]Line, error) {
	idx := indexOf(lines, lineID)
	if idx < 0 {
		return lines, ErrLineNotFound
	}

	out := make([]Line, 0, len(lines)-1)
	out = append(out, lines[:idx]...)
	out = append(out, lines[idx+1:]...)
	return out, nil
}

// Compute は小計・税・合計を出す。税は小計×税率を円(セント)単位で四捨五入。
func Compute(lines []Line, taxRate decimal.Decimal) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * l.Quantity
	}

	tax := decimal.NewFromInt(subtotal).Mul(taxRate).Round(0).IntPart()
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// Count は品数の合計
func Count(lines []Line) int64 {
	var n int64
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func indexOf(lines []Line, lineID string) int {
	for i, l := range lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}
