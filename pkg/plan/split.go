package plan

import "omnichunk/pkg/manifest"

// splitFiles is the file-level sub-chunker. Files keep their order and are
// never split. A new plan starts when the next file would push a non-empty
// running chunk over budget, so a file larger than the budget stands alone.
// Every resulting plan carries keys.
func splitFiles(files []manifest.FileUnit, keys []string, budget int, seq *Sequencer) error {
	var current []manifest.FileUnit
	size := 0

	for _, f := range files {
		if len(current) > 0 && size+f.Size > budget {
			if err := seq.Finalize(keys, current); err != nil {
				return err
			}
			current = current[:0]
			size = 0
		}
		current = append(current, f)
		size += f.Size
	}
	return seq.Finalize(keys, current)
}
