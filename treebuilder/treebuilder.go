/*
 * Copyright 2020 Guardtime, Inc.
 *
 * This file is part of the Guardtime client SDK.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES, CONDITIONS, OR OTHER LICENSES OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 * "Guardtime" and "KSI" are trademarks or registered trademarks of
 * Guardtime, Inc., and no license to trademarks is granted; Guardtime
 * reserves and retains all trademark rights.
 */

// Package treebuilder implements local aggregation of many input hashes into a single aggregation request.
//
// The root hash of the locally built Merkle tree is sent to the aggregator with the tree height as the request level
// (see service.(*Signer).Sign()), so that one request covers every input hash.
//
// Blinding masks
//
// A typical log record may contain too little entropy to hide it from an informed brute-force attack on the hash
// values of its neighbours in the tree. A blinding mask can be joined with every record before aggregation:
//
// - No masking (default).
//
// - Masking with the previous leaf and IV: m[i] = hash(x[i-1] || IV). Inter-links the blocks, but a block can only be
// started after the previous one is complete. See TreeOptMaskingWithPreviousLeaf.
//
// - Masking with the index and IV: m[i] = hash(i || IV), i is the 1-based record index in the block. Blocks can be
// built in parallel. See TreeOptMaskingWithIndex.
package treebuilder

import (
	"encoding/binary"
	"fmt"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/log"
	"github.com/guardtime/ksipdu/pdu"
)

// Listener is notified of every node value computed by the tree: the leaves in the order they are added (leaf is
// true), followed by the aggregate values as they are joined.
type Listener func(imprint hash.Imprint, level byte, leaf bool) error

// Tree is Merkle tree builder object.
type Tree struct {
	// Aggregation algorithm identifier used to compute the output hash values of the link structures.
	algorithm hash.Algorithm
	// Maximum level of the root hash.
	maxLevel byte

	// Blinding mask IV. Masking is disabled if nil.
	iv []byte
	// Previous leaf for masking, nil when masking with the index.
	prevLeaf hash.Imprint
	lastLeaf hash.Imprint
	count    uint64

	// forest[i] holds the root of a pending perfect subtree, or nil.
	forest   []*node
	root     *node
	listener Listener
}

type node struct {
	imprint hash.Imprint
	level   byte
}

// TreeOpt is the configuration option for the tree builder.
type TreeOpt func(*Tree) error

// New returns a new tree builder instance for local aggregation.
// By default the aggregation algorithm is hash.Default, the maximum tree height is pdu.MaxLevel and masking is
// disabled.
func New(options ...TreeOpt) (*Tree, error) {
	t := &Tree{
		algorithm: hash.Default,
		maxLevel:  pdu.MaxLevel,
	}
	for _, setter := range options {
		if setter == nil {
			return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Provided option is nil.")
		}
		if err := setter(t); err != nil {
			return nil, errors.KsiErr(err).AppendMessage("Unable to apply tree option.")
		}
	}

	if _, err := t.algorithm.HashFunc(); err != nil {
		return nil, err
	}
	return t, nil
}

// TreeOptAlgorithm is the aggregation algorithm identifier used to compute the output hash values of the link
// structures.
func TreeOptAlgorithm(alg hash.Algorithm) TreeOpt {
	return func(t *Tree) error {
		if !alg.Trusted() || !alg.Registered() {
			return errors.New(errors.KsiInvalidArgumentError).
				AppendMessage(fmt.Sprintf("Invalid aggregation algorithm: %s.", alg))
		}
		t.algorithm = alg
		return nil
	}
}

// TreeOptMaxLevel limits the level of the root hash, for example to the maximum level announced by the aggregator
// configuration (see pdu.(*Config).MaxLevel()).
func TreeOptMaxLevel(lvl byte) TreeOpt {
	return func(t *Tree) error {
		t.maxLevel = lvl
		return nil
	}
}

// TreeOptMaskingWithPreviousLeaf enables masking with the previous leaf. The leaf is the last leaf of the previous
// block (see (*Tree).LastLeaf()), or the zero imprint (see hash.(Algorithm).ZeroImprint()) for the very first block.
// The IV should be about as long as the output of the hash function and kept as confidential as the data.
func TreeOptMaskingWithPreviousLeaf(iv []byte, leaf hash.Imprint) TreeOpt {
	return func(t *Tree) error {
		if !leaf.IsValid() {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Invalid previous leaf imprint.")
		}
		if len(iv) == 0 {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing IV.")
		}
		t.iv = append([]byte(nil), iv...)
		t.prevLeaf = leaf
		t.lastLeaf = leaf
		return nil
	}
}

// TreeOptMaskingWithIndex enables masking with the record index.
func TreeOptMaskingWithIndex(iv []byte) TreeOpt {
	return func(t *Tree) error {
		if len(iv) == 0 {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing IV.")
		}
		t.iv = append([]byte(nil), iv...)
		return nil
	}
}

// TreeOptListener sets the node listener.
func TreeOptListener(l Listener) TreeOpt {
	return func(t *Tree) error {
		if l == nil {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing tree listener.")
		}
		t.listener = l
		return nil
	}
}

type inputHashOptions struct {
	level byte
}

// InputHashOption is the configuration option for (*Tree).AddNode().
type InputHashOption func(o *inputHashOptions) error

// InputHashOptionLevel sets the level of the input hash, for input hashes which are roots of lower level trees.
func InputHashOptionLevel(level byte) InputHashOption {
	return func(o *inputHashOptions) error {
		o.level = level
		return nil
	}
}

// AddNode adds a new leaf to the tree.
//
// If adding the leaf would make the level of the root hash greater than the tree maximum level,
// errors.KsiBufferOverflow is returned and the tree is left unchanged.
func (t *Tree) AddNode(inputHash hash.Imprint, options ...InputHashOption) error {
	if t == nil || !inputHash.IsValid() {
		return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Invalid input hash.")
	}
	if t.root != nil {
		return errors.New(errors.KsiInvalidStateError).AppendMessage("Tree is closed.")
	}

	var opts inputHashOptions
	for _, setter := range options {
		if setter == nil {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Provided option is nil.")
		}
		if err := setter(&opts); err != nil {
			return errors.KsiErr(err).AppendMessage("Unable to apply input hash option.")
		}
	}
	if t.masked() && opts.level != 0 {
		return errors.New(errors.KsiInvalidStateError).
			AppendMessage("Level can not be used in combination with blinding mask.")
	}
	if err := t.checkHeight(opts.level); err != nil {
		return err
	}

	x := &node{imprint: append(hash.Imprint(nil), inputHash...), level: opts.level}
	if err := t.notify(x, true); err != nil {
		return err
	}

	if t.masked() {
		mask, err := t.blindingMask()
		if err != nil {
			return errors.KsiErr(err).AppendMessage("Failed to calculate blinding mask.")
		}
		log.Debug(fmt.Sprintf("Blinding mask for record %d: %s", t.count+1, mask))
		if x, err = t.join(&node{imprint: mask}, x); err != nil {
			return err
		}
	}

	if err := t.insert(x, 0); err != nil {
		return err
	}
	t.lastLeaf = x.imprint
	t.count++
	return nil
}

// checkHeight returns error if the root of the tree would exceed the maximum level after adding the input hash.
func (t *Tree) checkHeight(inputLevel byte) error {
	height := int(inputLevel)
	if t.masked() {
		height++
	}
	for _, n := range t.forest {
		if n == nil {
			continue
		}
		height = max(height, int(n.level)) + 1
	}
	if height > int(t.maxLevel) {
		return errors.New(errors.KsiBufferOverflow).
			AppendMessage(fmt.Sprintf("Tree height exceeding the max level '%d'.", t.maxLevel))
	}
	return nil
}

func (t *Tree) masked() bool {
	return t.iv != nil
}

func (t *Tree) blindingMask() (hash.Imprint, error) {
	if t.prevLeaf != nil {
		return t.algorithm.Sum(t.lastLeaf, t.iv)
	}
	return t.algorithm.Sum(binary.AppendUvarint(nil, t.count+1), t.iv)
}

// insert carries the node up the forest like a binary counter.
func (t *Tree) insert(n *node, at int) error {
	for ; at < len(t.forest) && t.forest[at] != nil; at++ {
		joined, err := t.join(t.forest[at], n)
		if err != nil {
			return err
		}
		t.forest[at] = nil
		n = joined
	}
	if at == len(t.forest) {
		t.forest = append(t.forest, nil)
	}
	t.forest[at] = n
	return nil
}

// join computes the parent hash(l || r || level) of the nodes.
func (t *Tree) join(l, r *node) (*node, error) {
	lvl := max(l.level, r.level)
	if lvl >= t.maxLevel {
		return nil, errors.New(errors.KsiBufferOverflow).
			AppendMessage(fmt.Sprintf("Tree height exceeding the max level '%d'.", t.maxLevel))
	}
	lvl++

	imprint, err := t.algorithm.Sum(l.imprint, r.imprint, []byte{lvl})
	if err != nil {
		return nil, err
	}

	n := &node{imprint: imprint, level: lvl}
	if err := t.notify(n, false); err != nil {
		return nil, err
	}
	return n, nil
}

func (t *Tree) notify(n *node, leaf bool) error {
	if t.listener == nil {
		return nil
	}
	if err := t.listener(n.imprint, n.level, leaf); err != nil {
		return errors.KsiErr(err).AppendMessage("Tree listener returned error.")
	}
	return nil
}

// Count returns the number of input hashes added to the tree.
func (t *Tree) Count() int {
	if t == nil {
		return 0
	}
	return int(t.count)
}

// Aggregate closes the tree and returns the root hash value and the tree height. No leaves can be added afterwards,
// a repeated call returns the same root.
func (t *Tree) Aggregate() (hash.Imprint, byte, error) {
	if t == nil {
		return nil, 0, errors.New(errors.KsiInvalidArgumentError)
	}
	if t.count == 0 {
		return nil, 0, errors.New(errors.KsiInvalidStateError).AppendMessage("Tree is empty.")
	}

	if t.root == nil {
		var root *node
		for _, n := range t.forest {
			if n == nil {
				continue
			}
			if root == nil {
				root = n
				continue
			}
			joined, err := t.join(n, root)
			if err != nil {
				return nil, 0, errors.KsiErr(err).AppendMessage("Failed to aggregate nodes.")
			}
			root = joined
		}
		t.root = root
		t.forest = nil
	}
	return t.root.imprint, t.root.level, nil
}

// LastLeaf returns the last leaf added to the tree. With blinding masks the leaf is the masked value, to be used
// for TreeOptMaskingWithPreviousLeaf of the next block.
func (t *Tree) LastLeaf() hash.Imprint {
	if t == nil {
		return nil
	}
	return t.lastLeaf
}
