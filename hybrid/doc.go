// Package hybrid routes transcription requests across a remote and a local
// backend.
//
// A request moves through these states:
//
//	init -> remote_attempt -> (accepted | local_fallback)
//	     -> speaker_check? -> semantic_check? -> done
//
// with failed as the other terminal state. Fallback is all or nothing: when
// any segment fails on the primary backend every segment is served by the
// other one, so the response has a single source. With primary_service set
// to local the roles are swapped and remote text is reported as "fallback".
package hybrid
