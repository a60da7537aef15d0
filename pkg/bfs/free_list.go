package bfs

import (
	"github.com/buildbarn/bb-bfs/pkg/fileio"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// freeList keeps track of which blocks in the data region of a volume
// are in use. It is not stored on disk. Instead, it is reconstructed
// from the inode table every time a volume is mounted.
//
// Blocks are handed out in ascending order, so that files written to
// a freshly formatted volume end up being laid out contiguously.
type freeList struct {
	dataStart  fileio.BlockNumber
	used       []bool
	lowestFree int
	freeCount  int
}

func newFreeList(dataStart, blockCount fileio.BlockNumber) *freeList {
	return &freeList{
		dataStart: dataStart,
		used:      make([]bool, blockCount-dataStart),
		freeCount: int(blockCount - dataStart),
	}
}

func (fl *freeList) contains(block fileio.BlockNumber) bool {
	return block >= fl.dataStart && int(block-fl.dataStart) < len(fl.used)
}

// markUsed is called at mount time for every block referenced by an
// inode.
func (fl *freeList) markUsed(block fileio.BlockNumber) error {
	if !fl.contains(block) {
		return status.Errorf(codes.FailedPrecondition, "Block %d is not part of the data region", block)
	}
	index := int(block - fl.dataStart)
	if fl.used[index] {
		return status.Errorf(codes.FailedPrecondition, "Block %d is referenced more than once", block)
	}
	fl.used[index] = true
	fl.freeCount--
	return nil
}

func (fl *freeList) allocate() (fileio.BlockNumber, error) {
	for index := fl.lowestFree; index < len(fl.used); index++ {
		if !fl.used[index] {
			fl.used[index] = true
			fl.freeCount--
			fl.lowestFree = index + 1
			return fl.dataStart + fileio.BlockNumber(index), nil
		}
	}
	return 0, status.Error(codes.ResourceExhausted, "No free blocks available")
}

func (fl *freeList) release(block fileio.BlockNumber) {
	index := int(block - fl.dataStart)
	if !fl.contains(block) || !fl.used[index] {
		panic("Attempted to release a block that is not in use")
	}
	fl.used[index] = false
	fl.freeCount++
	if fl.lowestFree > index {
		fl.lowestFree = index
	}
}
