package viz

import (
	"strings"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBase = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid addressed in braille sub-pixels: it is
// Width*2 dots wide and Height*4 dots tall, origin top left.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) DotsWide() int { return c.Width * 2 }
func (c *Canvas) DotsHigh() int { return c.Height * 4 }

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// FillColumn sets every dot of column x from the bottom edge up to height
// dots.
func (c *Canvas) FillColumn(x, height int) {
	bottom := c.DotsHigh() - 1
	for y := 0; y < height && y <= bottom; y++ {
		c.Set(x, bottom-y)
	}
}

// DrawProfile renders column heights as a filled skyline. Heights are scaled
// so that top fills the canvas and the lowest value in heights sits on the
// bottom row; columns are stretched or sampled to the canvas width.
func (c *Canvas) DrawProfile(heights []uint32) {
	c.Clear()
	if len(heights) == 0 {
		return
	}

	lo, hi := heights[0], heights[0]
	for _, h := range heights {
		if h < lo {
			lo = h
		}
		if h > hi {
			hi = h
		}
	}
	span := float64(hi - lo)
	if span == 0 {
		span = 1
	}

	dots := c.DotsWide()
	for x := 0; x < dots; x++ {
		h := heights[x*len(heights)/dots]
		level := 1 + int(float64(h-lo)/span*float64(c.DotsHigh()-1))
		c.FillColumn(x, level)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}
