// SPDX-License-Identifier: MIT

// Package confmod delivers a JSON configuration file to bundled
// application code through a virtual module.
//
// Application code imports the module by its public specifier,
// "virtual:JsonConfig" by default. Development builds embed the current
// file content as an inline literal; production builds emit the content
// as a static JSON asset and serve an async accessor that fetches it at
// runtime, degrading to an empty object whenever the file, the network
// or a browser environment is missing.
package confmod
