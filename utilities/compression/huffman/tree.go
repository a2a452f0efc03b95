package huffman

import (
	"fmt"
	"sort"

	"github.com/dargueta/bitplane"
)

// SentinelSymbol is the symbol of the leaf that marks the end of the data. It
// sorts before every real symbol.
const SentinelSymbol = -1

// MaxCodeLength is the longest code a symbol may be assigned.
const MaxCodeLength = 64

const noChild = -1

type node struct {
	weight uint64
	symbol int
	left   int
	right  int
}

func (n *node) isLeaf() bool {
	return n.left == noChild
}

// Tree is a Huffman tree. Nodes live in a single slice and refer to their
// children by index. Every interior node has exactly two children, and exactly
// one leaf holds [SentinelSymbol].
type Tree struct {
	nodes []node
	root  int
}

func (tree *Tree) addLeaf(weight uint64, symbol int) int {
	tree.nodes = append(
		tree.nodes, node{weight: weight, symbol: symbol, left: noChild, right: noChild})
	return len(tree.nodes) - 1
}

func (tree *Tree) addInterior(left, right int) int {
	tree.nodes = append(
		tree.nodes,
		node{
			weight: tree.nodes[left].weight + tree.nodes[right].weight,
			symbol: SentinelSymbol,
			left:   left,
			right:  right,
		})
	return len(tree.nodes) - 1
}

// BuildTree creates a Huffman tree for the symbols counted in `hist`, plus a
// zero-weight sentinel leaf.
//
// Leaves start out with the sentinel first and the rest in ascending symbol
// order, then are stable-sorted by descending weight. The two lightest nodes
// (the last two) are repeatedly merged into an interior node whose left child
// is the lighter one, and the new node moves toward the front of the list past
// any node strictly lighter than itself. Equal weights thus keep their order,
// so the same histogram always gives the same tree.
func BuildTree(hist *Histogram) *Tree {
	tree := &Tree{nodes: make([]node, 0, 2*len(hist.Counts)+1)}

	pending := []int{tree.addLeaf(0, SentinelSymbol)}
	for symbol, count := range hist.Counts {
		if count > 0 {
			pending = append(pending, tree.addLeaf(count, symbol))
		}
	}

	sort.SliceStable(
		pending,
		func(i, j int) bool {
			return tree.nodes[pending[i]].weight > tree.nodes[pending[j]].weight
		},
	)

	for {
		last := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if len(pending) == 0 {
			tree.root = last
			return tree
		}

		next := pending[len(pending)-1]
		pending[len(pending)-1] = tree.addInterior(last, next)

		for i := len(pending) - 2; i >= 0; i-- {
			if tree.nodes[pending[i+1]].weight <= tree.nodes[pending[i]].weight {
				break
			}
			pending[i], pending[i+1] = pending[i+1], pending[i]
		}
	}
}

// Weight gives the total weight of the tree, which is the number of symbols in
// the input it was built from.
func (tree *Tree) Weight() uint64 {
	return tree.nodes[tree.root].weight
}

// Code is a symbol and the bit string assigned to it.
type Code struct {
	Symbol int
	// Length is the number of bits in the code. Only the sentinel of an
	// otherwise empty tree has a zero-length code.
	Length uint8
	// Bits holds the code right-aligned, first bit most significant.
	Bits uint64
}

func (c Code) String() string {
	if c.Length == 0 {
		return fmt.Sprintf("%d:<empty>", c.Symbol)
	}
	return fmt.Sprintf("%d:%0*b", c.Symbol, c.Length, c.Bits)
}

// Codes walks the tree depth-first and returns the code of each leaf in the
// order visited. Going left appends a 0 bit, going right appends a 1.
//
// It fails with [bitplane.ErrCodeTooLong] if a leaf is deeper than
// [MaxCodeLength].
func (tree *Tree) Codes() ([]Code, error) {
	codes := make([]Code, 0, len(tree.nodes)/2+1)
	err := tree.assignCodes(tree.root, 0, 0, &codes)
	return codes, err
}

func (tree *Tree) assignCodes(index int, depth uint, path uint64, codes *[]Code) error {
	current := &tree.nodes[index]
	if current.isLeaf() {
		*codes = append(
			*codes, Code{Symbol: current.symbol, Length: uint8(depth), Bits: path})
		return nil
	}

	if depth >= MaxCodeLength {
		return bitplane.ErrCodeTooLong.WithMessage(
			fmt.Sprintf("tree is deeper than %d levels", MaxCodeLength))
	}
	if err := tree.assignCodes(current.left, depth+1, path<<1, codes); err != nil {
		return err
	}
	return tree.assignCodes(current.right, depth+1, path<<1|1, codes)
}

// Canonicalize sorts `codes` by length and then by symbol, and replaces each
// code's bits with its canonical value. Lengths are left alone.
//
// The first code is all zeros. Each code after it is one more than the code
// before it, shifted left by however much longer it is.
func Canonicalize(codes []Code) {
	sort.Slice(
		codes,
		func(i, j int) bool {
			if codes[i].Length != codes[j].Length {
				return codes[i].Length < codes[j].Length
			}
			return codes[i].Symbol < codes[j].Symbol
		},
	)

	var next uint64
	var previousLength uint8
	for i := range codes {
		if i > 0 {
			next++
		}
		next <<= codes[i].Length - previousLength
		previousLength = codes[i].Length
		codes[i].Bits = next
	}
}

// rebuildTree reconstructs the tree shape from code lengths listed in
// canonical order. Leaves are created left to right, depth first, so the
// result assigns exactly the canonical codes. The lengths must describe a
// complete prefix code; anything else is [bitplane.ErrCorruptStream].
func rebuildTree(table []Code) (*Tree, error) {
	tree := &Tree{nodes: make([]node, 0, 2*len(table))}
	position := 0

	root, err := tree.rebuildSubtree(table, &position, 0)
	if err != nil {
		return nil, err
	}
	if position != len(table) {
		return nil, bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf(
				"code table has %d entries but only %d fit in the tree",
				len(table),
				position))
	}
	tree.root = root
	return tree, nil
}

func (tree *Tree) rebuildSubtree(table []Code, position *int, depth uint8) (int, error) {
	if *position >= len(table) {
		return 0, bitplane.ErrCorruptStream.WithMessage(
			"code lengths don't form a complete tree")
	}

	entry := table[*position]
	if entry.Length == depth {
		*position++
		return tree.addLeaf(0, entry.Symbol), nil
	} else if entry.Length < depth || depth >= MaxCodeLength {
		return 0, bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf(
				"code of length %d for symbol %d is out of order",
				entry.Length,
				entry.Symbol))
	}

	left, err := tree.rebuildSubtree(table, position, depth+1)
	if err != nil {
		return 0, err
	}
	right, err := tree.rebuildSubtree(table, position, depth+1)
	if err != nil {
		return 0, err
	}
	return tree.addInterior(left, right), nil
}
