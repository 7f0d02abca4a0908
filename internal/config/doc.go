// Package config loads the powerdev environment configuration and
// describes the fixed host directory tree.
//
// Configuration comes from $POWERDEV_HOME/powerdev.env (dotenv format);
// process environment variables override file values. A missing file is
// a warning, never an error: every setting has a computed default.
//
// Recognized keys:
//   - POWERDEV_CPUS       override the computed CPU limit
//   - POWERDEV_MEMORY_GB  override the computed memory limit
//   - EXTERNAL_DIR        host directory mounted at /external
//   - POWERDEV_GPU        enable GPU passthrough (true/1)
package config
