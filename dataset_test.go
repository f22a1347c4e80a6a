package ppgagent

import "testing"

func TestExperienceDatasetAlignment(t *testing.T) {
	episodes := []Episode{
		testEpisode([]float64{1, 2, 3}, []float64{0.5, 0.25, 1}, []bool{false, false, true}),
		testEpisode([]float64{-1}, []float64{2}, []bool{true}),
		testEpisode([]float64{0, 4}, []float64{1, -1}, []bool{false, false}),
	}
	j := &Judger{Discount: 0.9, Lambda: 0.8}
	dataset, err := NewExperienceDataset(j, episodes)
	if err != nil {
		t.Fatal(err)
	}
	if dataset.Len() != 6 {
		t.Fatalf("expected length 6 but got %d", dataset.Len())
	}

	var idx int
	for _, e := range episodes {
		advs := j.Advantages(e)
		for i, trans := range e {
			sample := dataset.Sample(idx)
			if sample.State != trans.State || sample.Action != trans.Action ||
				sample.ActionLogProb != trans.ActionLogProb {
				t.Errorf("sample %d: vectors do not match episode", idx)
			}
			if sample.Done != trans.Done {
				t.Errorf("sample %d: bad done flag", idx)
			}
			assertClose(t, "reward", trans.Reward, sample.Reward)
			assertClose(t, "value", trans.Value, sample.Value)
			assertClose(t, "advantage", advs[i], sample.Advantage)
			assertClose(t, "return", trans.Value+advs[i], sample.Return)
			assertClose(t, "flat advantage", advs[i], dataset.Advantages()[idx])
			assertClose(t, "flat return", trans.Value+advs[i], dataset.Returns()[idx])
			idx++
		}
	}
}

func TestExperienceDatasetEmpty(t *testing.T) {
	dataset, err := NewExperienceDataset(DefaultJudger(), []Episode{nil, {}})
	if err != nil {
		t.Fatal(err)
	}
	if dataset.Len() != 0 {
		t.Errorf("expected empty dataset but got %d entries", dataset.Len())
	}
}

func TestExperienceDatasetIncomplete(t *testing.T) {
	ep := testEpisode([]float64{1, 2}, []float64{0, 0}, []bool{false, true})
	ep[1].ActionLogProb = nil
	if _, err := NewExperienceDataset(DefaultJudger(), []Episode{ep}); err == nil {
		t.Error("expected error for missing log prob")
	}
	ep[1] = nil
	if _, err := NewExperienceDataset(DefaultJudger(), []Episode{ep}); err == nil {
		t.Error("expected error for nil transition")
	}
}

func TestExperienceDatasetBatch(t *testing.T) {
	ep := testEpisode([]float64{1, 2, 3}, []float64{0, 1, 2}, []bool{false, false, true})
	dataset, err := NewExperienceDataset(DefaultJudger(), []Episode{ep})
	if err != nil {
		t.Fatal(err)
	}
	batch := dataset.Batch([]int{2, 0}, false)
	if batch.Size != 2 {
		t.Fatalf("expected size 2 but got %d", batch.Size)
	}
	assertAllClose(t, "states", []float64{2, 1, 0, 1}, vecToFloats(batch.States))
	assertAllClose(t, "actions", []float64{1, 0, 1, 0}, vecToFloats(batch.Actions))
	assertAllClose(t, "log probs", []float64{-0.5, -0.5}, vecToFloats(batch.OldLogProbs))
	assertAllClose(t, "rewards", []float64{3, 1}, vecToFloats(batch.Rewards))
	assertAllClose(t, "values", []float64{2, 0}, vecToFloats(batch.Values))
	advs := dataset.Advantages()
	assertAllClose(t, "advantages", []float64{advs[2], advs[0]},
		vecToFloats(batch.Advantages))
	rets := dataset.Returns()
	assertAllClose(t, "returns", []float64{rets[2], rets[0]}, vecToFloats(batch.Returns))

	normed := dataset.Batch([]int{2, 0}, true)
	assertAllClose(t, "normalized", NormalizeAdvantages([]float64{advs[2], advs[0]}),
		vecToFloats(normed.Advantages))
	assertAllClose(t, "stored", advs, dataset.Advantages())
}

func TestExperienceDatasetAuxTransitions(t *testing.T) {
	ep := testEpisode([]float64{1, 2}, []float64{0.5, 1.5}, []bool{false, true})
	dataset, err := NewExperienceDataset(DefaultJudger(), []Episode{ep})
	if err != nil {
		t.Fatal(err)
	}
	records := dataset.AuxTransitions()
	if len(records) != 2 {
		t.Fatalf("expected 2 records but got %d", len(records))
	}
	for i, r := range records {
		if r.State != ep[i].State {
			t.Errorf("record %d: wrong state", i)
		}
		assertClose(t, "old value", ep[i].Value, r.OldValue)
		assertClose(t, "return", dataset.Returns()[i], r.Return)
	}
}

func TestEpisodeSummaries(t *testing.T) {
	ep := testEpisode([]float64{1, -0.5, 2}, []float64{0.25, 3, -1}, []bool{false, false, true})
	assertAllClose(t, "values", []float64{0.25, 3, -1}, ep.Values())
	assertClose(t, "total reward", 2.5, ep.TotalReward())
	if len(Episode(nil).Values()) != 0 {
		t.Error("expected no values for empty episode")
	}
}
