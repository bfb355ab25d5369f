// Package audio models uploaded recordings and splits oversized ones into
// independently decodable segments.
//
// WAV is split on sample-frame boundaries with a synthesized header per
// fragment; MP3 is split on MPEG frame boundaries. Other formats are sent
// whole when they fit the segment limit; larger ones are decoded to WAV
// through ffmpeg and split as WAV, or rejected when no decoder is set. The split is
// deterministic and the byte ranges of the segments tile the asset exactly.
package audio
