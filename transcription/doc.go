// Package transcription defines the Backend contract shared by the remote
// and local speech-to-text engines, the Attempt record every call returns,
// and the registry through which the service builds its two backends.
//
// # Backends
//
//   - transcription/remote: OpenAI-compatible HTTP API ("openai")
//   - transcription/local: on-host whisper engine, sidecar or CLI ("whisper-local")
//
// Backends never return bare errors from Transcribe or Translate. A failed
// call yields an Attempt with OK false and a failure Reason, so the caller
// can decide whether another backend absorbs it.
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(transcription.FactoryRemote, remote.Factory(log, metrics))
//	reg.RegisterFactory(transcription.FactoryLocal, local.Factory(engine, log, metrics))
//	pair, err := reg.Build(transcription.FactoryRemote, remoteCfg, transcription.FactoryLocal, localCfg)
package transcription
