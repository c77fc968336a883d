// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

/*
Package classifier trains, persists and serves the binary 1/5 star classifier.

# Pipeline

A Model is a TF-IDF vectorizer (unigrams and bigrams, English stop words)
followed by an L2-regularized logistic regression. Both halves are fitted
together by Trainer and stored together as one artifact, so a served model
can never pair weights with the wrong vocabulary.

# Artifact Format

The artifact is a gob-encoded envelope holding metadata and the
gzip-compressed gob encoding of the Model. The metadata carries a SHA-256
checksum of the uncompressed model bytes which is verified on load. Writes go
to a temporary file in the same directory followed by a rename. The
evaluation report is written next to the artifact as YAML.

# Serving

Service decides its state once, at construction:

  - MODEL_LOADED: predictions come from the model.
  - MODEL_UNAVAILABLE: predictions come from a keyword heuristic.

There is no transition between states without a restart. A model prediction
that fails at request time also falls back to the heuristic, so Predict
never returns an error.
*/
package classifier
