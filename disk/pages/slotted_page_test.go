package pages

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novalite/common"
)

func newSlottedPageTestInstance(t *testing.T) *SlottedPage {
	t.Helper()

	p, err := NewSlottedPage(make([]byte, common.PageSize))
	require.NoError(t, err)
	require.NoError(t, p.Init(HeapPage))
	return p
}

func freeSpace(t *testing.T, p *SlottedPage) int {
	t.Helper()

	free, err := p.FreeSpace()
	require.NoError(t, err)
	return int(free)
}

func header(t *testing.T, p *SlottedPage) PageHeader {
	t.Helper()

	h, err := p.Header()
	require.NoError(t, err)
	return h
}

func TestNewSlottedPage_Rejects_Wrong_Length(t *testing.T) {
	_, err := NewSlottedPage(make([]byte, common.PageSize-1))
	assert.ErrorIs(t, err, common.ErrCorruption)

	_, err = NewSlottedPage(nil)
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestNewSlottedPage_Does_Not_Touch_Buffer(t *testing.T) {
	buf := bytes.Repeat([]byte{0xAB}, common.PageSize)
	_, err := NewSlottedPage(buf)
	require.NoError(t, err)

	assert.Equal(t, bytes.Repeat([]byte{0xAB}, common.PageSize), buf)
}

func TestInsert_Tuple(t *testing.T) {
	p := newSlottedPageTestInstance(t)

	id, err := p.Insert([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), id)

	h := header(t, p)
	assert.Equal(t, uint16(1), h.SlotCount)
	assert.Equal(t, uint16(22), h.Lower)
	assert.Equal(t, uint16(4093), h.Upper)

	res, err := p.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), res)

	id, err = p.Insert([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, uint16(1), id)

	h = header(t, p)
	assert.Equal(t, uint16(28), h.Lower)
	assert.Equal(t, uint16(4082), h.Upper)
	assert.NoError(t, p.ValidateFull())
}

func TestAll_Inserted_Should_Be_Found(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	n := 100
	for i := 0; i < n; i++ {
		id, err := p.Insert([]byte(fmt.Sprintf("selam_%v", i)))
		require.NoError(t, err)
		assert.Equal(t, uint16(i), id)
	}

	count, err := p.SlotCount()
	require.NoError(t, err)
	assert.Equal(t, uint16(n), count)

	// read in random order
	for _, i := range rand.Perm(n) {
		res, err := p.Get(uint16(i))
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("selam_%v", i)), res)
	}
	assert.NoError(t, p.ValidateFull())
}

func TestInsert_Empty_Tuple(t *testing.T) {
	p := newSlottedPageTestInstance(t)

	id, err := p.Insert([]byte{})
	require.NoError(t, err)

	res, err := p.Get(id)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Len(t, res, 0)
}

func TestInsert_Decreases_Free_Space_By_Data_And_Slot_Size(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	assert.Equal(t, common.PageSize-common.HeaderSize, freeSpace(t, p))

	for _, n := range []int{0, 1, 7, 100, 512} {
		before := freeSpace(t, p)
		_, err := p.Insert(make([]byte, n))
		require.NoError(t, err)
		assert.Equal(t, before-n-common.SlotSize, freeSpace(t, p))
	}
}

func TestInsert_Tuple_Should_Return_Error_When_There_Is_No_Enough_Space_Left(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	toInsert := make([]byte, freeSpace(t, p)/3)

	_, err := p.Insert(toInsert)
	assert.NoError(t, err)
	_, err = p.Insert(toInsert)
	assert.NoError(t, err)

	before := append([]byte(nil), p.GetData()...)
	_, err = p.Insert(toInsert)
	assert.ErrorIs(t, err, common.ErrNoSpace)

	// a failed insert must not change the page at all
	assert.Equal(t, before, p.GetData())
}

func TestInsert_Fills_Page_Exactly(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	free := freeSpace(t, p)

	_, err := p.Insert(make([]byte, free-common.SlotSize+1))
	assert.ErrorIs(t, err, common.ErrNoSpace)

	_, err = p.Insert(make([]byte, free-common.SlotSize))
	require.NoError(t, err)
	assert.Equal(t, 0, freeSpace(t, p))
	assert.NoError(t, p.ValidateFull())

	_, err = p.Insert(nil)
	assert.ErrorIs(t, err, common.ErrNoSpace)
}

func TestInsert_Larger_Than_Page(t *testing.T) {
	p := newSlottedPageTestInstance(t)

	_, err := p.Insert(make([]byte, 70000))
	assert.ErrorIs(t, err, common.ErrNoSpace)
}

func TestDelete_Then_Get_Returns_Nil(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	id, err := p.Insert([]byte("to be deleted"))
	require.NoError(t, err)

	before := freeSpace(t, p)
	require.NoError(t, p.Delete(id))
	assert.Equal(t, before, freeSpace(t, p), "tombstones do not reclaim space")
	assert.True(t, header(t, p).HasFlag(FlagHasFreeSlots))

	res, err := p.Get(id)
	require.NoError(t, err)
	assert.Nil(t, res)

	// deleting twice is a no-op
	data := append([]byte(nil), p.GetData()...)
	require.NoError(t, p.Delete(id))
	assert.Equal(t, data, p.GetData())
}

func TestDeleted_Slot_Is_Reused(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	for i := 0; i < 5; i++ {
		_, err := p.Insert([]byte(fmt.Sprintf("tuple_%v", i)))
		require.NoError(t, err)
	}

	require.NoError(t, p.Delete(2))
	count := header(t, p).SlotCount
	before := freeSpace(t, p)

	id, err := p.Insert([]byte("new"))
	require.NoError(t, err)
	assert.Equal(t, uint16(2), id)
	assert.Equal(t, count, header(t, p).SlotCount)
	assert.Equal(t, before-len("new"), freeSpace(t, p))

	res, err := p.Get(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), res)

	// the flag is kept until a scan finds no dead slot
	assert.True(t, header(t, p).HasFlag(FlagHasFreeSlots))

	id, err = p.Insert([]byte("another"))
	require.NoError(t, err)
	assert.Equal(t, uint16(5), id)
	assert.False(t, header(t, p).HasFlag(FlagHasFreeSlots))
	assert.NoError(t, p.ValidateFull())
}

func TestInsert_Skips_Scan_When_Flag_Is_Not_Set(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	_, err := p.Insert([]byte("a"))
	require.NoError(t, err)
	_, err = p.Insert([]byte("b"))
	require.NoError(t, err)

	// mark slot 0 dead behind the page's back, the page does not know about the tombstone.
	s, err := ReadSlot(p.GetData(), 0)
	require.NoError(t, err)
	s.Flags |= SlotDead
	require.NoError(t, WriteSlot(p.GetData(), 0, s))

	id, err := p.Insert([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, uint16(2), id)
}

func TestDelete_Keeps_Page_Type(t *testing.T) {
	p, err := NewSlottedPage(make([]byte, common.PageSize))
	require.NoError(t, err)
	require.NoError(t, p.Init(BtreeLeafPage))

	id, err := p.Insert([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, p.Delete(id))

	pt, err := p.PageType()
	require.NoError(t, err)
	assert.Equal(t, BtreeLeafPage, pt)
}

func TestUpdate_In_Place(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	id, err := p.Insert([]byte("hello world"))
	require.NoError(t, err)

	upper := header(t, p).Upper
	moved, err := p.Update(id, []byte("hi"))
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, upper, header(t, p).Upper)

	res, err := p.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), res)

	// vacated tail is zeroed
	assert.Equal(t, make([]byte, len("hello world")-2), p.GetData()[int(upper)+2:int(upper)+len("hello world")])

	moved, err = p.Update(id, []byte("ok"))
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestUpdate_Larger_Moves_Tuple(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	id, err := p.Insert([]byte("abc"))
	require.NoError(t, err)
	other, err := p.Insert([]byte("other"))
	require.NoError(t, err)

	upper := header(t, p).Upper
	before := freeSpace(t, p)
	moved, err := p.Update(id, []byte("a much longer value"))
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Less(t, header(t, p).Upper, upper)
	assert.Equal(t, before-len("a much longer value"), freeSpace(t, p))

	res, err := p.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("a much longer value"), res)

	res, err = p.Get(other)
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), res)
	assert.NoError(t, p.ValidateFull())
}

func TestUpdate_Without_Space(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	id, err := p.Insert([]byte("abc"))
	require.NoError(t, err)
	_, err = p.Insert(make([]byte, freeSpace(t, p)-common.SlotSize-2))
	require.NoError(t, err)

	before := append([]byte(nil), p.GetData()...)
	_, err = p.Update(id, []byte("abcdef"))
	assert.ErrorIs(t, err, common.ErrNoSpace)
	assert.Equal(t, before, p.GetData())
}

func TestUpdate_And_Delete_Invalid_Slots(t *testing.T) {
	p := newSlottedPageTestInstance(t)

	_, err := p.Get(0)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = p.Update(0, []byte("x"))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.ErrorIs(t, p.Delete(0), common.ErrInvalidArgument)

	id, err := p.Insert([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, p.Delete(id))

	_, err = p.Update(id, []byte("y"))
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestValidateHeader_Detects_Corrupted_Lower(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	_, err := p.Insert([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, p.ValidateHeader())

	// lower no longer equals 16 + slot_count*6
	require.NoError(t, writeLower(p.GetData(), 30))
	assert.ErrorIs(t, p.ValidateHeader(), common.ErrCorruption)

	// every operation refuses the page
	_, err = p.Insert([]byte("x"))
	assert.ErrorIs(t, err, common.ErrCorruption)
	_, err = p.Get(0)
	assert.ErrorIs(t, err, common.ErrCorruption)
	assert.ErrorIs(t, p.Delete(0), common.ErrCorruption)
}

func TestValidateHeader_Detects_Bad_Bounds(t *testing.T) {
	cases := map[string]func(buf []byte){
		"lower below header": func(buf []byte) { _ = writeLower(buf, 10) },
		"upper beyond page":  func(buf []byte) { _ = writeUpper(buf, 5000) },
		"lower above upper": func(buf []byte) {
			_ = writeSlotCount(buf, 10)
			_ = writeLower(buf, 76)
			_ = writeUpper(buf, 50)
		},
	}

	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			p := newSlottedPageTestInstance(t)
			corrupt(p.GetData())
			assert.ErrorIs(t, p.ValidateHeader(), common.ErrCorruption)
		})
	}
}

func TestFreeSpace_Detects_Lower_Above_Upper(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	require.NoError(t, writeUpper(p.GetData(), 10))

	_, err := p.FreeSpace()
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestValidateFull_Detects_Slot_Pointing_Into_Free_Space(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	id, err := p.Insert([]byte("abc"))
	require.NoError(t, err)

	s, err := ReadSlot(p.GetData(), id)
	require.NoError(t, err)
	s.Offset = 100
	require.NoError(t, WriteSlot(p.GetData(), id, s))

	assert.NoError(t, p.ValidateHeader())
	assert.ErrorIs(t, p.ValidateFull(), common.ErrCorruption)

	_, err = p.Get(id)
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestValidateFull_Detects_Tuple_Beyond_Page(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	id, err := p.Insert([]byte("abc"))
	require.NoError(t, err)

	s, err := ReadSlot(p.GetData(), id)
	require.NoError(t, err)
	s.Len = 10
	require.NoError(t, WriteSlot(p.GetData(), id, s))

	assert.ErrorIs(t, p.ValidateFull(), common.ErrCorruption)
}

func TestValidateFull_Ignores_Dead_Slots(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	id, err := p.Insert([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, p.Delete(id))

	s, err := ReadSlot(p.GetData(), id)
	require.NoError(t, err)
	s.Offset = 0
	require.NoError(t, WriteSlot(p.GetData(), id, s))

	assert.NoError(t, p.ValidateFull())
}

func TestLiveSlots(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	for i := 0; i < 6; i++ {
		_, err := p.Insert([]byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, p.Delete(1))
	require.NoError(t, p.Delete(4))

	live, err := p.LiveSlots()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 2, 3, 5}, live)
}

func TestRandom_Operations_Keep_Page_Consistent(t *testing.T) {
	p := newSlottedPageTestInstance(t)
	r := rand.New(rand.NewSource(42))
	expected := map[uint16][]byte{}

	for i := 0; i < 2000; i++ {
		switch op := r.Intn(3); {
		case op == 0 || len(expected) == 0:
			data := make([]byte, r.Intn(40))
			r.Read(data)
			id, err := p.Insert(data)
			if err != nil {
				require.ErrorIs(t, err, common.ErrNoSpace)
				continue
			}
			expected[id] = data
		case op == 1:
			for id := range expected {
				require.NoError(t, p.Delete(id))
				delete(expected, id)
				break
			}
		default:
			for id := range expected {
				data := make([]byte, r.Intn(40))
				r.Read(data)
				if _, err := p.Update(id, data); err != nil {
					require.ErrorIs(t, err, common.ErrNoSpace)
					break
				}
				expected[id] = data
				break
			}
		}

		require.NoError(t, p.ValidateFull())
	}

	for id, data := range expected {
		res, err := p.Get(id)
		require.NoError(t, err)
		assert.Equal(t, data, res)
	}
}
