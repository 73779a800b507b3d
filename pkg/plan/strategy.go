package plan

import (
	"sort"

	"omnichunk/pkg/manifest"
)

// directoryStrategy packs whole directories with greedy first-fit over
// buckets sorted by size, largest first, ties broken by key.
type directoryStrategy struct{}

func (directoryStrategy) Plan(m *manifest.Manifest, budget int, seq *Sequencer) error {
	if done, err := wholeCorpus(m, budget, seq); done || err != nil {
		return err
	}

	buckets := append([]*manifest.GroupBucket(nil), m.Buckets...)
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].TotalSize != buckets[j].TotalSize {
			return buckets[i].TotalSize > buckets[j].TotalSize
		}
		return buckets[i].Key < buckets[j].Key
	})

	var (
		currentDirs  []string
		currentFiles []manifest.FileUnit
		currentSize  int
	)
	flush := func() error {
		err := seq.Finalize(currentDirs, currentFiles)
		currentDirs, currentFiles, currentSize = nil, nil, 0
		return err
	}

	for _, b := range buckets {
		if currentSize+b.TotalSize <= budget {
			currentDirs = append(currentDirs, b.Key)
			currentFiles = append(currentFiles, b.Members...)
			currentSize += b.TotalSize
			continue
		}

		if len(currentFiles) > 0 {
			if err := flush(); err != nil {
				return err
			}
		}

		if b.TotalSize > budget {
			if err := splitFiles(b.Members, []string{b.Key}, budget, seq); err != nil {
				return err
			}
			continue
		}

		currentDirs = []string{b.Key}
		currentFiles = append([]manifest.FileUnit(nil), b.Members...)
		currentSize = b.TotalSize
	}

	return flush()
}

// typeStrategy walks the files in scan order. Each maximal run of files
// sharing a category goes through the sub-chunker, so a category change
// always ends the running chunk and every plan carries one key.
type typeStrategy struct{}

func (typeStrategy) Plan(m *manifest.Manifest, budget int, seq *Sequencer) error {
	if done, err := wholeCorpus(m, budget, seq); done || err != nil {
		return err
	}

	files := m.Files
	for start := 0; start < len(files); {
		end := start + 1
		for end < len(files) && files[end].Key == files[start].Key {
			end++
		}
		if err := splitFiles(files[start:end], []string{files[start].Key}, budget, seq); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// sizeStrategy splits the ungrouped scan-ordered sequence.
type sizeStrategy struct{}

func (sizeStrategy) Plan(m *manifest.Manifest, budget int, seq *Sequencer) error {
	if done, err := wholeCorpus(m, budget, seq); done || err != nil {
		return err
	}
	return splitFiles(m.Files, nil, budget, seq)
}
