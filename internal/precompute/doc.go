// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

/*
Package precompute runs the offline batch jobs that derive the per-business
sentiment rows and the per-user cluster labels.

# Jobs

  - Extractor ("nlp"): mean VADER compound score and top TF-IDF keywords per
    business, upserted into business_nlp.
  - Clusterer ("clusters"): standardized user features clustered with
    k-means, published as one atomic swap of user_clusters.

Both jobs report a JobSummary aggregating one UnitResult per processed unit.
A failing unit is logged and counted; the run continues. Only failures to
read the input or to publish the output fail the job as a whole.

# Scheduling

Runner serializes jobs. A second run requested while one is in progress is
rejected with ErrJobRunning instead of queueing.
*/
package precompute
