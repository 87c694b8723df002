package ll

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	links Links[*item]
	v     int
}

func (i *item) Links() *Links[*item] { return &i.links }

func items(n int) []*item {
	out := make([]*item, n)
	for i := range out {
		out[i] = &item{v: i + 1}
	}
	return out
}

func doubleValues(d *DoubleList[*item]) []int {
	var out []int
	for e := range d.All() {
		out = append(out, e.v)
	}
	return out
}

func ringValues(c *CircularList[*item]) []int {
	var out []int
	for e := range c.All() {
		out = append(out, e.v)
	}
	return out
}

func TestDoubleListAddRemove(t *testing.T) {
	var d DoubleList[*item]
	d.Checked = true
	it := items(3)
	for _, e := range it {
		d.Add(e)
	}
	require.Equal(t, []int{1, 2, 3}, doubleValues(&d))
	require.Equal(t, 3, d.Len())

	require.True(t, d.Remove(it[1]))
	require.Equal(t, []int{1, 3}, doubleValues(&d))
	require.False(t, it[1].links.Linked())

	require.True(t, d.Remove(it[0]))
	require.Same(t, it[2], d.Head())
	require.Same(t, it[2], d.Tail())

	require.True(t, d.Remove(it[2]))
	require.True(t, d.Empty())
	require.Nil(t, d.Head())
	require.Nil(t, d.Tail())
}

func TestDoubleListRemoveDetachedIsNoop(t *testing.T) {
	var d DoubleList[*item]
	e := &item{}
	require.False(t, d.Remove(e))
	d.Add(e)
	require.True(t, d.Remove(e))
	require.False(t, d.Remove(e))
	require.Zero(t, d.Len())
}

func TestDoubleListPopHead(t *testing.T) {
	var d DoubleList[*item]
	for _, e := range items(2) {
		d.Add(e)
	}
	e, ok := d.PopHead()
	require.True(t, ok)
	require.Equal(t, 1, e.v)
	e, ok = d.PopHead()
	require.True(t, ok)
	require.Equal(t, 2, e.v)
	_, ok = d.PopHead()
	require.False(t, ok)
}

func TestAddLinkedPanics(t *testing.T) {
	var a, b DoubleList[*item]
	e := &item{}
	a.Add(e)
	require.PanicsWithValue(t, ErrLinked, func() { b.Add(e) })
	require.PanicsWithValue(t, ErrForeign, func() { b.Remove(e) })

	var c CircularList[*item]
	require.PanicsWithValue(t, ErrLinked, func() { c.Add(e) })
}

func TestCheckedUnlinkDetectsCorruption(t *testing.T) {
	var d DoubleList[*item]
	d.Checked = true
	it := items(3)
	for _, e := range it {
		d.Add(e)
	}
	it[0].links.next = it[2]
	require.PanicsWithValue(t, ErrUnlinkFailed, func() { d.Remove(it[1]) })

	var u DoubleList[*item]
	ut := items(3)
	for _, e := range ut {
		u.Add(e)
	}
	ut[0].links.next = ut[2]
	require.NotPanics(t, func() { u.Remove(ut[1]) })
}

func TestCircularListRing(t *testing.T) {
	var c CircularList[*item]
	c.Checked = true
	it := items(3)
	for _, e := range it {
		c.Add(e)
	}
	require.Same(t, c.Head(), c.Tail().links.Next())
	require.Same(t, c.Tail(), c.Head().links.Prev())

	c.PivotForward()
	require.Equal(t, []int{2, 3, 1}, ringValues(&c))
	c.PivotBackward()
	c.PivotBackward()
	require.Equal(t, []int{3, 1, 2}, ringValues(&c))

	require.True(t, c.Remove(it[2]))
	require.Equal(t, []int{1, 2}, ringValues(&c))
	require.Same(t, c.Head(), c.Tail().links.Next())
}

func TestCircularListSoleNode(t *testing.T) {
	var c CircularList[*item]
	e := &item{v: 7}
	c.Add(e)
	require.Same(t, e, e.links.Next())
	require.Same(t, e, e.links.Prev())
	c.PivotForward()
	require.Same(t, e, c.Head())

	require.True(t, c.Remove(e))
	require.True(t, c.Empty())
	require.Nil(t, c.Head())
	require.Nil(t, c.Tail())
	require.False(t, e.links.Linked())
}

func TestCircularListInsertBefore(t *testing.T) {
	var c CircularList[*item]
	it := items(4)
	c.Add(it[0])
	c.Add(it[1])

	c.InsertBefore(it[2], it[1])
	require.Equal(t, []int{1, 3, 2}, ringValues(&c))

	c.InsertBefore(it[3], it[0])
	require.Same(t, it[3], c.Head())
	require.Equal(t, []int{4, 1, 3, 2}, ringValues(&c))
	require.Same(t, c.Head(), c.Tail().links.Next())
}

func TestRoundTripRestoresList(t *testing.T) {
	var c CircularList[*item]
	it := items(3)
	for _, e := range it[:2] {
		c.Add(e)
	}
	before := ringValues(&c)
	c.Add(it[2])
	c.Remove(it[2])
	require.True(t, slices.Equal(before, ringValues(&c)))
	require.Same(t, it[0], c.Tail().links.Next())
}
